package vm

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/gas"
	"github.com/govm-net/corevm/opcode"
	"github.com/govm-net/corevm/value"
)

// State is the terminal or intermediate status of one Run.
type State int

const (
	// Running is only ever observed mid-dispatch; it is never returned
	// from Run (§4.C).
	Running State = iota
	Halt
	Fault
)

func (s State) String() string {
	switch s {
	case Halt:
		return "Halt"
	case Fault:
		return "Fault"
	default:
		return "Running"
	}
}

// FaultError reports a terminal VM invariant violation: unknown
// opcode, stack underflow, an unresolved CTX target, a missing
// EXTCALL handler, or an explicit THROW (§7 "VM fault").
type FaultError struct {
	Op      opcode.Opcode
	Message string
	// Err is the first error among the fault's format arguments, if
	// any, so errors.Is/errors.As can see the underlying cause.
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("vm fault at %s: %s", e.Op, e.Message)
}

func (e *FaultError) Unwrap() error { return e.Err }

func fault(op opcode.Opcode, format string, args ...any) error {
	fe := &FaultError{Op: op, Message: fmt.Sprintf(format, args...)}
	for _, a := range args {
		if err, ok := a.(error); ok {
			fe.Err = err
			break
		}
	}
	return fe
}

// Host resolves the operations the interpreter cannot perform on its
// own: loading another named context (CTX) and dispatching a
// host-registered handler by name (EXTCALL). Runtime implements Host;
// vm never imports runtime, breaking the Runtime<->VM<->ExecutionContext
// cycle the source exhibits (spec.md §9 "Cyclic references").
type Host interface {
	ResolveContext(name string) (*ExecutionContext, error)
	Extcall(i *Interpreter, method string, args []Value) (Value, error)
}

// Interpreter executes one ExecutionContext's bytecode to Halt or
// Fault, threading itself into opcode dispatch as the receiver (§9).
type Interpreter struct {
	Host  Host
	Meter *gas.Meter

	frames []*Frame
	state  State
	err    error
}

// New builds an Interpreter over host and meter. One Interpreter is
// created per Runtime invocation (parent or trigger child).
func New(host Host, meter *gas.Meter) *Interpreter {
	return &Interpreter{Host: host, Meter: meter}
}

// Current returns the active frame, or nil if none is pushed.
func (i *Interpreter) Current() *Frame {
	if len(i.frames) == 0 {
		return nil
	}
	return i.frames[len(i.frames)-1]
}

// Depth reports the number of frames currently pushed.
func (i *Interpreter) Depth() int { return len(i.frames) }

func (i *Interpreter) pushFrame(entry core.Address, ctx *ExecutionContext) *Frame {
	f := newFrame(entry, ctx)
	i.frames = append(i.frames, f)
	return f
}

func (i *Interpreter) popFrame() *Frame {
	if len(i.frames) == 0 {
		return nil
	}
	f := i.frames[len(i.frames)-1]
	i.frames = i.frames[:len(i.frames)-1]
	return f
}

// Run pushes a new frame for ctx and executes it to completion,
// returning the terminal state and the top-of-stack result (or Empty).
func (i *Interpreter) Run(entry core.Address, ctx *ExecutionContext, locals []Value) (State, Value, error) {
	frame := i.pushFrame(entry, ctx)
	frame.Locals = locals
	defer i.popFrame()

	if ctx.IsNative() {
		method := ""
		if len(locals) > 0 {
			if s, err := locals[0].AsString(); err == nil {
				method = s
			}
		}
		result, err := ctx.Native(i, method, locals[1:])
		if err != nil {
			return Fault, Value{}, err
		}
		return Halt, result, nil
	}

	return i.dispatch(frame)
}

func (i *Interpreter) dispatch(frame *Frame) (State, Value, error) {
	script := frame.Context.Script
	pc := 0

	for pc < len(script) {
		op := opcode.Opcode(script[pc])
		pc++

		if err := i.Meter.ValidateOpcode(op); err != nil {
			return Fault, Value{}, err
		}

		switch {
		case opcode.TakesValueOperand(op):
			v, n, err := value.Decode(script[pc:])
			if err != nil {
				return Fault, Value{}, fault(op, "bad value operand: %v", err)
			}
			pc += n
			if err := frame.Stack.Push(v); err != nil {
				return Fault, Value{}, fault(op, "%v", err)
			}
			continue

		case opcode.TakesStringOperand(op):
			s, n, err := readString(script[pc:])
			if err != nil {
				return Fault, Value{}, fault(op, "bad string operand: %v", err)
			}
			pc += n
			result, halted, err := i.dispatchStringOp(frame, op, s)
			if err != nil {
				return Fault, Value{}, err
			}
			if halted {
				return Halt, result, nil
			}
			continue

		case opcode.TakesOffsetOperand(op):
			if len(script[pc:]) < 4 {
				return Fault, Value{}, fault(op, "truncated offset operand")
			}
			offset := binary.LittleEndian.Uint32(script[pc : pc+4])
			pc += 4
			jump, err := i.dispatchOffsetOp(frame, op, offset)
			if err != nil {
				return Fault, Value{}, err
			}
			if jump >= 0 {
				pc = jump
			}
			continue

		case opcode.TakesIndexOperand(op):
			if len(script[pc:]) < 1 {
				return Fault, Value{}, fault(op, "truncated index operand")
			}
			idx := int(script[pc])
			pc++
			if idx >= len(frame.Locals) {
				return Fault, Value{}, fault(op, "local index %d out of range", idx)
			}
			if err := frame.Stack.Push(frame.Locals[idx]); err != nil {
				return Fault, Value{}, fault(op, "%v", err)
			}
			continue

		case op == opcode.SWITCH:
			jump, n, err := i.dispatchSwitch(frame, script[pc:])
			if err != nil {
				return Fault, Value{}, err
			}
			pc += n
			if jump >= 0 {
				pc = jump
			}
			continue

		default:
			result, halted, err := i.dispatchSimple(frame, op)
			if err != nil {
				return Fault, Value{}, err
			}
			if halted {
				return Halt, result, nil
			}
		}
	}

	top, err := frame.Stack.Pop()
	if err != nil {
		return Halt, value.Empty(), nil
	}
	return Halt, top, nil
}

func (i *Interpreter) dispatchSimple(frame *Frame, op opcode.Opcode) (Value, bool, error) {
	switch op {
	case opcode.NOP:
		return Value{}, false, nil
	case opcode.RET:
		top, err := frame.Stack.Pop()
		if err != nil {
			return value.Empty(), true, nil
		}
		return top, true, nil
	case opcode.POP:
		if _, err := frame.Stack.Pop(); err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		return Value{}, false, nil
	case opcode.DUP:
		top, err := frame.Stack.Peek()
		if err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		if err := frame.Stack.Push(top); err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		return Value{}, false, nil
	case opcode.SWAP:
		a, err := frame.Stack.Pop()
		if err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		b, err := frame.Stack.Pop()
		if err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		frame.Stack.Push(a)
		frame.Stack.Push(b)
		return Value{}, false, nil
	case opcode.ADD, opcode.SUB, opcode.MUL, opcode.DIV, opcode.MOD, opcode.AND, opcode.OR, opcode.XOR:
		return Value{}, false, i.binaryArith(frame, op)
	case opcode.NOT:
		v, err := frame.Stack.Pop()
		if err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		b, err := v.AsBool()
		if err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		frame.Stack.Push(value.Bool(!b))
		return Value{}, false, nil
	case opcode.EQ, opcode.LT, opcode.GT:
		return Value{}, false, i.compareOp(frame, op)
	default:
		return Value{}, false, fault(op, "unrecognized opcode")
	}
}

func (i *Interpreter) binaryArith(frame *Frame, op opcode.Opcode) error {
	rhs, err := frame.Stack.Pop()
	if err != nil {
		return fault(op, "%v", err)
	}
	lhs, err := frame.Stack.Pop()
	if err != nil {
		return fault(op, "%v", err)
	}

	if op == opcode.AND || op == opcode.OR || op == opcode.XOR {
		a, err := lhs.AsBool()
		if err != nil {
			return fault(op, "%v", err)
		}
		b, err := rhs.AsBool()
		if err != nil {
			return fault(op, "%v", err)
		}
		var result bool
		switch op {
		case opcode.AND:
			result = a && b
		case opcode.OR:
			result = a || b
		case opcode.XOR:
			result = a != b
		}
		return frame.Stack.Push(value.Bool(result))
	}

	l, err := lhs.AsInteger()
	if err != nil {
		return fault(op, "%v", err)
	}
	r, err := rhs.AsInteger()
	if err != nil {
		return fault(op, "%v", err)
	}

	result := new(big.Int)
	switch op {
	case opcode.ADD:
		result.Add(l, r)
	case opcode.SUB:
		result.Sub(l, r)
	case opcode.MUL:
		result.Mul(l, r)
	case opcode.DIV:
		if r.Sign() == 0 {
			return fault(op, "division by zero")
		}
		result.Quo(l, r)
	case opcode.MOD:
		if r.Sign() == 0 {
			return fault(op, "division by zero")
		}
		result.Rem(l, r)
	}
	return frame.Stack.Push(value.Int(result))
}

func (i *Interpreter) compareOp(frame *Frame, op opcode.Opcode) error {
	rhs, err := frame.Stack.Pop()
	if err != nil {
		return fault(op, "%v", err)
	}
	lhs, err := frame.Stack.Pop()
	if err != nil {
		return fault(op, "%v", err)
	}

	if op == opcode.EQ {
		return frame.Stack.Push(value.Bool(value.Equal(lhs, rhs)))
	}

	cmp, err := value.Compare(lhs, rhs)
	if err != nil {
		return fault(op, "%v", err)
	}
	var result bool
	if op == opcode.LT {
		result = cmp < 0
	} else {
		result = cmp > 0
	}
	return frame.Stack.Push(value.Bool(result))
}

func (i *Interpreter) dispatchStringOp(frame *Frame, op opcode.Opcode, operand string) (Value, bool, error) {
	switch op {
	case opcode.GET:
		v, ok := frame.Memory[operand]
		if !ok {
			v = value.Empty()
		}
		if err := frame.Stack.Push(v); err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		return Value{}, false, nil

	case opcode.PUT:
		v, err := frame.Stack.Pop()
		if err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		frame.Memory[operand] = v
		return Value{}, false, nil

	case opcode.THROW:
		return Value{}, false, fault(op, "%s", operand)

	case opcode.CTX:
		next, err := i.Host.ResolveContext(operand)
		if err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		entry := core.SystemAddress(operand)
		state, result, err := i.Run(entry, next, nil)
		if err != nil {
			return Value{}, false, err
		}
		if state == Fault {
			return Value{}, false, fault(op, "context %q faulted", operand)
		}
		frame.Stack.Push(result)
		return Value{}, false, nil

	case opcode.CALL:
		return i.dispatchCall(frame, op, operand)

	case opcode.EXTCALL:
		args, err := popArgs(frame)
		if err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		result, err := i.Host.Extcall(i, operand, args)
		if err != nil {
			return Value{}, false, fault(op, "%v", err)
		}
		frame.Stack.Push(result)
		return Value{}, false, nil

	default:
		return Value{}, false, fault(op, "unrecognized string-operand opcode")
	}
}

// dispatchCall invokes a named method on the currently loaded native
// context (another contract is entered through CTX, host-registered
// handlers through EXTCALL). Script contexts have no callable methods
// of their own, and bytecode only ever runs in a script context's
// frame, so a CALL reached from bytecode faults.
func (i *Interpreter) dispatchCall(frame *Frame, op opcode.Opcode, method string) (Value, bool, error) {
	if !frame.Context.IsNative() {
		return Value{}, false, fault(op, "CALL requires a native context")
	}
	args, err := popArgs(frame)
	if err != nil {
		return Value{}, false, fault(op, "%v", err)
	}
	result, err := frame.Context.Native(i, method, args)
	if err != nil {
		return Value{}, false, fault(op, "%v", err)
	}
	frame.Stack.Push(result)
	return Value{}, false, nil
}

// popArgs implements the "PUSH args... PUSH <count> EXTCALL "name""
// call convention: it pops one Integer count Value from the top of the
// stack, then that many argument Values, and returns the arguments in
// the order they were pushed.
func popArgs(frame *Frame) ([]Value, error) {
	countVal, err := frame.Stack.Pop()
	if err != nil {
		return nil, err
	}
	count, err := countVal.AsInteger()
	if err != nil {
		return nil, err
	}
	n := int(count.Int64())
	if n < 0 || n > frame.Stack.Len() {
		return nil, fmt.Errorf("vm: bad argument count %d", n)
	}
	args := make([]Value, n)
	for idx := n - 1; idx >= 0; idx-- {
		v, err := frame.Stack.Pop()
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}
	return args, nil
}

func (i *Interpreter) dispatchOffsetOp(frame *Frame, op opcode.Opcode, offset uint32) (int, error) {
	switch op {
	case opcode.JMP:
		return int(offset), nil
	case opcode.JMPIF:
		v, err := frame.Stack.Pop()
		if err != nil {
			return -1, fault(op, "%v", err)
		}
		b, err := v.AsBool()
		if err != nil {
			return -1, fault(op, "%v", err)
		}
		if b {
			return int(offset), nil
		}
		return -1, nil
	default:
		return -1, fault(op, "unrecognized offset-operand opcode")
	}
}

// dispatchSwitch reads a case table (count byte, then count pairs of
// encoded Value + 4-byte offset) and jumps to the offset paired with
// the value matching the popped top-of-stack, falling through when no
// case matches.
func (i *Interpreter) dispatchSwitch(frame *Frame, operand []byte) (int, int, error) {
	if len(operand) < 1 {
		return -1, 0, fault(opcode.SWITCH, "truncated case count")
	}
	count := int(operand[0])
	pos := 1
	selector, err := frame.Stack.Pop()
	if err != nil {
		return -1, 0, fault(opcode.SWITCH, "%v", err)
	}

	jump := -1
	for c := 0; c < count; c++ {
		caseVal, n, err := value.Decode(operand[pos:])
		if err != nil {
			return -1, 0, fault(opcode.SWITCH, "bad case value: %v", err)
		}
		pos += n
		if len(operand[pos:]) < 4 {
			return -1, 0, fault(opcode.SWITCH, "truncated case offset")
		}
		offset := binary.LittleEndian.Uint32(operand[pos : pos+4])
		pos += 4
		if jump < 0 && value.Equal(selector, caseVal) {
			jump = int(offset)
		}
	}
	return jump, pos, nil
}

func readString(data []byte) (string, int, error) {
	if len(data) < 4 {
		return "", 0, fmt.Errorf("truncated length prefix")
	}
	n := binary.LittleEndian.Uint32(data[:4])
	if uint32(len(data)-4) < n {
		return "", 0, fmt.Errorf("truncated payload")
	}
	return string(data[4 : 4+n]), 4 + int(n), nil
}
