package vm

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/gas"
	"github.com/govm-net/corevm/opcode"
	"github.com/govm-net/corevm/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHost struct {
	contexts map[string]*ExecutionContext
	extcalls map[string]func(args []Value) (Value, error)
}

func newStubHost() *stubHost {
	return &stubHost{contexts: make(map[string]*ExecutionContext), extcalls: make(map[string]func(args []Value) (Value, error))}
}

func (h *stubHost) ResolveContext(name string) (*ExecutionContext, error) {
	ctx, ok := h.contexts[name]
	if !ok {
		return nil, assertErr("no such context")
	}
	return ctx, nil
}

func (h *stubHost) Extcall(i *Interpreter, method string, args []Value) (Value, error) {
	fn, ok := h.extcalls[method]
	if !ok {
		return Value{}, assertErr("no such handler")
	}
	return fn(args)
}

type simpleErr string

func assertErr(s string) error { return simpleErr(s) }
func (e simpleErr) Error() string { return string(e) }

func newMeter(maxGas int64) *gas.Meter {
	m := gas.NewMeter()
	m.MaxGas = maxGas
	return m
}

func op(b *bytes.Buffer, o opcode.Opcode) { b.WriteByte(byte(o)) }

func pushVal(b *bytes.Buffer, v Value) {
	b.WriteByte(byte(opcode.PUSH))
	b.Write(value.Encode(v))
}

func strOperand(b *bytes.Buffer, o opcode.Opcode, s string) {
	b.WriteByte(byte(o))
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	b.Write(n[:])
	b.WriteString(s)
}

func scriptContext(name string, script []byte) *ExecutionContext {
	return &ExecutionContext{Name: name, Script: script}
}

func TestArithmeticAndHalt(t *testing.T) {
	var buf bytes.Buffer
	pushVal(&buf, value.Int64(2))
	pushVal(&buf, value.Int64(3))
	op(&buf, opcode.ADD)
	op(&buf, opcode.RET)

	host := newStubHost()
	i := New(host, newMeter(1000))
	state, result, err := i.Run(core.ZeroAddress, scriptContext("main", buf.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, Halt, state)
	got, err := result.AsInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Int64())
}

func TestDivisionByZeroFaults(t *testing.T) {
	var buf bytes.Buffer
	pushVal(&buf, value.Int64(1))
	pushVal(&buf, value.Int64(0))
	op(&buf, opcode.DIV)

	host := newStubHost()
	i := New(host, newMeter(1000))
	_, _, err := i.Run(core.ZeroAddress, scriptContext("main", buf.Bytes()), nil)
	assert.Error(t, err)
}

func TestStackUnderflowFaults(t *testing.T) {
	var buf bytes.Buffer
	op(&buf, opcode.ADD)

	host := newStubHost()
	i := New(host, newMeter(1000))
	_, _, err := i.Run(core.ZeroAddress, scriptContext("main", buf.Bytes()), nil)
	assert.ErrorIs(t, err, ErrStackUnderflow)
}

func TestGasExhaustionFaults(t *testing.T) {
	var buf bytes.Buffer
	for n := 0; n < 10; n++ {
		op(&buf, opcode.NOP)
		op(&buf, opcode.CTX)
	}

	host := newStubHost()
	i := New(host, newMeter(1)) // SWITCH/CTX-tier costs exceed budget fast
	_, _, err := i.Run(core.ZeroAddress, scriptContext("main", buf.Bytes()), nil)
	assert.Error(t, err)
}

func TestGetPutMemory(t *testing.T) {
	var buf bytes.Buffer
	pushVal(&buf, value.Int64(9))
	strOperand(&buf, opcode.PUT, "x")
	strOperand(&buf, opcode.GET, "x")
	op(&buf, opcode.RET)

	host := newStubHost()
	i := New(host, newMeter(1000))
	state, result, err := i.Run(core.ZeroAddress, scriptContext("main", buf.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, Halt, state)
	got, err := result.AsInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.Int64())
}

func TestThrowFaultsWithMessage(t *testing.T) {
	var buf bytes.Buffer
	strOperand(&buf, opcode.THROW, "boom")

	host := newStubHost()
	i := New(host, newMeter(1000))
	_, _, err := i.Run(core.ZeroAddress, scriptContext("main", buf.Bytes()), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCtxResolvesChildContext(t *testing.T) {
	var child bytes.Buffer
	pushVal(&child, value.Int64(77))
	op(&child, opcode.RET)

	var parent bytes.Buffer
	strOperand(&parent, opcode.CTX, "child")
	op(&parent, opcode.RET)

	host := newStubHost()
	host.contexts["child"] = scriptContext("child", child.Bytes())

	i := New(host, newMeter(1000))
	state, result, err := i.Run(core.ZeroAddress, scriptContext("parent", parent.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, Halt, state)
	got, err := result.AsInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(77), got.Int64())
}

func TestCtxFaultsOnUnresolvedContext(t *testing.T) {
	var parent bytes.Buffer
	strOperand(&parent, opcode.CTX, "ghost")

	host := newStubHost()
	i := New(host, newMeter(1000))
	_, _, err := i.Run(core.ZeroAddress, scriptContext("parent", parent.Bytes()), nil)
	assert.Error(t, err)
}

func TestExtcallInvokesHostHandler(t *testing.T) {
	var buf bytes.Buffer
	pushVal(&buf, value.Int64(10))
	pushVal(&buf, value.Int64(1)) // argument count
	strOperand(&buf, opcode.EXTCALL, "double")
	op(&buf, opcode.RET)

	host := newStubHost()
	host.extcalls["double"] = func(args []Value) (Value, error) {
		n, _ := args[0].AsInteger()
		return value.Int64(n.Int64() * 2), nil
	}

	i := New(host, newMeter(1000))
	state, result, err := i.Run(core.ZeroAddress, scriptContext("main", buf.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, Halt, state)
	got, err := result.AsInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Int64())
}

func TestSwitchJumpsToMatchingCase(t *testing.T) {
	var trueBranch bytes.Buffer
	pushVal(&trueBranch, value.Int64(111))
	op(&trueBranch, opcode.RET)

	var falseBranch bytes.Buffer
	pushVal(&falseBranch, value.Int64(999))
	op(&falseBranch, opcode.RET)

	var prefix bytes.Buffer
	pushVal(&prefix, value.Int64(2)) // selector
	prefix.WriteByte(byte(opcode.SWITCH))
	prefix.WriteByte(2) // case count

	case1Val := value.Encode(value.Int64(1))
	case2Val := value.Encode(value.Int64(2))
	// header length up to (not including) the two trailing branches.
	headerLen := prefix.Len() + len(case1Val) + 4 + len(case2Val) + 4
	falseOffset := uint32(headerLen)
	trueOffset := uint32(headerLen + falseBranch.Len())

	var full bytes.Buffer
	full.Write(prefix.Bytes())
	full.Write(case1Val)
	var off1 [4]byte
	binary.LittleEndian.PutUint32(off1[:], falseOffset)
	full.Write(off1[:])
	full.Write(case2Val)
	var off2 [4]byte
	binary.LittleEndian.PutUint32(off2[:], trueOffset)
	full.Write(off2[:])
	full.Write(falseBranch.Bytes())
	full.Write(trueBranch.Bytes())

	host := newStubHost()
	i := New(host, newMeter(1000))
	state, result, err := i.Run(core.ZeroAddress, scriptContext("main", full.Bytes()), nil)
	require.NoError(t, err)
	assert.Equal(t, Halt, state)
	got, err := result.AsInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(111), got.Int64())
}

func TestNativeContextInvokesHandlerDirectly(t *testing.T) {
	native := &ExecutionContext{Name: "token", Native: func(i *Interpreter, method string, args []Value) (Value, error) {
		if method == "balance" {
			return value.Int64(42), nil
		}
		return value.Empty(), nil
	}}

	host := newStubHost()
	i := New(host, newMeter(1000))
	state, result, err := i.Run(core.ZeroAddress, native, []Value{value.String("balance")})
	require.NoError(t, err)
	assert.Equal(t, Halt, state)
	got, err := result.AsInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Int64())
}
