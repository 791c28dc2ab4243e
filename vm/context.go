package vm

import (
	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/value"
)

// Value is the stack/frame element type (component A).
type Value = value.Value

// NativeHandler implements a built-in contract's methods (§3
// "Execution Context"). No per-method gas cost is declared or charged
// for a native call: only the opcode that reaches it is metered.
type NativeHandler func(i *Interpreter, method string, args []Value) (Value, error)

// ExecutionContext is a named executable unit: either user-deployed
// bytecode or a built-in native handler (§3 "Execution Context").
type ExecutionContext struct {
	Name   string
	Script []byte
	Native NativeHandler
}

// IsNative reports whether this context is a built-in handler rather
// than interpreted bytecode.
func (c *ExecutionContext) IsNative() bool { return c.Native != nil }

// Frame is one activation record: the caller identity active while
// this context runs, the loaded context itself, the return program
// counter, locals, and a private operand stack and memory map (§3
// "Frame", §4.B).
type Frame struct {
	EntryAddress core.Address
	Context      *ExecutionContext
	ReturnOffset uint32
	Locals       []Value
	Stack        *Stack
	Memory       map[string]Value
}

func newFrame(entry core.Address, ctx *ExecutionContext) *Frame {
	return &Frame{
		EntryAddress: entry,
		Context:      ctx,
		Stack:        newStack(),
		Memory:       make(map[string]Value),
	}
}
