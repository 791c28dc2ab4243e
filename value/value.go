// Package value implements the dynamically-typed Value the interpreter's
// stack and object fields hold: arbitrary-precision integers, byte
// strings, addresses, and structured objects, with explicit coercions
// and a canonical byte encoding used for hashing and comparison.
package value

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/govm-net/corevm/core"
)

// Kind is the runtime type tag carried by every Value.
type Kind byte

const (
	KindInteger Kind = iota
	KindBytes
	KindString
	KindBool
	KindTimestamp
	KindAddress
	KindStruct
	KindObject
)

// ErrTypeMismatch is returned by coercions and comparisons that cannot
// be performed between the operands' runtime kinds.
var ErrTypeMismatch = errors.New("value: type mismatch")

// Value is a tagged union over the VM's runtime value space.
type Value struct {
	kind      Kind
	integer   *big.Int
	bytes     []byte
	str       string
	boolean   bool
	timestamp uint32
	address   core.Address
	fields    *Struct
	object    any
}

// Struct is an ordered mapping from field name to Value, preserving
// insertion order for canonical encoding.
type Struct struct {
	names  []string
	values map[string]Value
}

// NewStruct returns an empty, ordered struct value container.
func NewStruct() *Struct {
	return &Struct{values: make(map[string]Value)}
}

// Set inserts or updates a field, recording first-insertion order.
func (s *Struct) Set(name string, v Value) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = v
}

// Get returns a field's value and whether it was present.
func (s *Struct) Get(name string) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns field names in insertion order.
func (s *Struct) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Struct) Len() int { return len(s.names) }

// Constructors.

func Int(i *big.Int) Value        { return Value{kind: KindInteger, integer: new(big.Int).Set(i)} }
func Int64(i int64) Value         { return Int(big.NewInt(i)) }
func Bytes(b []byte) Value        { return Value{kind: KindBytes, bytes: append([]byte(nil), b...)} }
func String(s string) Value       { return Value{kind: KindString, str: s} }
func Bool(b bool) Value           { return Value{kind: KindBool, boolean: b} }
func Timestamp(t uint32) Value    { return Value{kind: KindTimestamp, timestamp: t} }
func AddressVal(a core.Address) Value { return Value{kind: KindAddress, address: a} }
func StructVal(s *Struct) Value   { return Value{kind: KindStruct, fields: s} }
func Object(o any) Value          { return Value{kind: KindObject, object: o} }

// Empty is the zero Value contracts receive when there is nothing to
// return (integer zero), matching CallContext's "empty Value" result.
func Empty() Value { return Int64(0) }

func (v Value) Kind() Kind { return v.kind }

// AsInteger returns the Value's big.Int, coercing from Bytes (unsigned
// little-endian, sign bit in the highest byte) when the Value is not
// already an Integer.
func (v Value) AsInteger() (*big.Int, error) {
	switch v.kind {
	case KindInteger:
		return new(big.Int).Set(v.integer), nil
	case KindBytes:
		return bytesToSignedInt(v.bytes), nil
	default:
		return nil, fmt.Errorf("%w: cannot read %v as Integer", ErrTypeMismatch, v.kind)
	}
}

// AsBytes returns the Value's raw bytes, coercing from Integer using an
// unsigned little-endian encoding with a trailing sign byte.
func (v Value) AsBytes() ([]byte, error) {
	switch v.kind {
	case KindBytes:
		return append([]byte(nil), v.bytes...), nil
	case KindInteger:
		return signedIntToBytes(v.integer), nil
	case KindString:
		return []byte(v.str), nil
	default:
		return nil, fmt.Errorf("%w: cannot read %v as Bytes", ErrTypeMismatch, v.kind)
	}
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("%w: cannot read %v as String", ErrTypeMismatch, v.kind)
	}
	return v.str, nil
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("%w: cannot read %v as Bool", ErrTypeMismatch, v.kind)
	}
	return v.boolean, nil
}

func (v Value) AsTimestamp() (uint32, error) {
	if v.kind != KindTimestamp {
		return 0, fmt.Errorf("%w: cannot read %v as Timestamp", ErrTypeMismatch, v.kind)
	}
	return v.timestamp, nil
}

func (v Value) AsAddress() (core.Address, error) {
	if v.kind != KindAddress {
		return core.Address{}, fmt.Errorf("%w: cannot read %v as Address", ErrTypeMismatch, v.kind)
	}
	return v.address, nil
}

func (v Value) AsStruct() (*Struct, error) {
	if v.kind != KindStruct {
		return nil, fmt.Errorf("%w: cannot read %v as Struct", ErrTypeMismatch, v.kind)
	}
	return v.fields, nil
}

func (v Value) AsObject() (any, error) {
	if v.kind != KindObject {
		return nil, fmt.Errorf("%w: cannot read %v as Object", ErrTypeMismatch, v.kind)
	}
	return v.object, nil
}

// signedIntToBytes encodes an arbitrary-precision signed integer as
// unsigned little-endian magnitude bytes plus a trailing sign byte (0
// for non-negative, 1 for negative), per §4.A's coercion rule.
func signedIntToBytes(i *big.Int) []byte {
	mag := new(big.Int).Abs(i).Bytes() // big-endian magnitude
	le := make([]byte, len(mag))
	for idx, b := range mag {
		le[len(mag)-1-idx] = b
	}
	sign := byte(0)
	if i.Sign() < 0 {
		sign = 1
	}
	return append(le, sign)
}

func bytesToSignedInt(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	sign := b[len(b)-1]
	mag := b[:len(b)-1]
	be := make([]byte, len(mag))
	for idx, bb := range mag {
		be[len(mag)-1-idx] = bb
	}
	out := new(big.Int).SetBytes(be)
	if sign == 1 {
		out.Neg(out)
	}
	return out
}

// Equal reports structural, total equality between two Values.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInteger:
		return a.integer.Cmp(b.integer) == 0
	case KindBytes:
		return bytes.Equal(a.bytes, b.bytes)
	case KindString:
		return a.str == b.str
	case KindBool:
		return a.boolean == b.boolean
	case KindTimestamp:
		return a.timestamp == b.timestamp
	case KindAddress:
		return a.address == b.address
	case KindStruct:
		return bytes.Equal(Encode(a), Encode(b))
	case KindObject:
		return a.object == b.object
	}
	return false
}

// Compare orders two Values. Only Integer and String comparisons are
// well-defined; any other pairing fails the opcode per §4.A.
func Compare(a, b Value) (int, error) {
	if a.kind != b.kind {
		return 0, fmt.Errorf("%w: cannot compare %v with %v", ErrTypeMismatch, a.kind, b.kind)
	}
	switch a.kind {
	case KindInteger:
		return a.integer.Cmp(b.integer), nil
	case KindString:
		return bytes.Compare([]byte(a.str), []byte(b.str)), nil
	default:
		return 0, fmt.Errorf("%w: %v is not ordered", ErrTypeMismatch, a.kind)
	}
}

// Encode produces the canonical byte form of v: for Struct, fields in
// insertion order as name(varstring) | type(u8) | payload; other kinds
// encode their natural byte payload tagged with their Kind.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(v.kind))
	switch v.kind {
	case KindInteger:
		writeVarBytes(&buf, signedIntToBytes(v.integer))
	case KindBytes:
		writeVarBytes(&buf, v.bytes)
	case KindString:
		writeVarString(&buf, v.str)
	case KindBool:
		if v.boolean {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case KindTimestamp:
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v.timestamp)
		buf.Write(tmp[:])
	case KindAddress:
		buf.Write(v.address[:])
	case KindStruct:
		names := v.fields.Names()
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(names)))
		buf.Write(n[:])
		for _, name := range names {
			field, _ := v.fields.Get(name)
			writeVarString(&buf, name)
			buf.WriteByte(byte(field.kind))
			buf.Write(Encode(field)[1:]) // payload only, kind already written above
		}
	case KindObject:
		// Objects are opaque; only their address in memory is stable
		// within a process, so they participate in equality but not in
		// cross-process canonical hashing.
	}
	return buf.Bytes()
}

// Decode parses the canonical form written by Encode, returning the
// Value and the number of bytes consumed from data.
func Decode(data []byte) (Value, int, error) {
	if len(data) < 1 {
		return Value{}, 0, fmt.Errorf("value: empty encoding")
	}
	kind := Kind(data[0])
	rest := data[1:]
	switch kind {
	case KindInteger:
		raw, n, err := readVarBytes(rest)
		if err != nil {
			return Value{}, 0, err
		}
		return Int(bytesToSignedInt(raw)), 1 + n, nil
	case KindBytes:
		raw, n, err := readVarBytes(rest)
		if err != nil {
			return Value{}, 0, err
		}
		return Bytes(raw), 1 + n, nil
	case KindString:
		raw, n, err := readVarBytes(rest)
		if err != nil {
			return Value{}, 0, err
		}
		return String(string(raw)), 1 + n, nil
	case KindBool:
		if len(rest) < 1 {
			return Value{}, 0, fmt.Errorf("value: truncated bool")
		}
		return Bool(rest[0] != 0), 2, nil
	case KindTimestamp:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("value: truncated timestamp")
		}
		return Timestamp(binary.LittleEndian.Uint32(rest[:4])), 5, nil
	case KindAddress:
		if len(rest) < core.AddressSize {
			return Value{}, 0, fmt.Errorf("value: truncated address")
		}
		var addr core.Address
		copy(addr[:], rest[:core.AddressSize])
		return AddressVal(addr), 1 + core.AddressSize, nil
	case KindStruct:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("value: truncated struct header")
		}
		count := binary.LittleEndian.Uint32(rest[:4])
		offset := 4
		s := NewStruct()
		for i := uint32(0); i < count; i++ {
			name, n, err := readVarBytes(rest[offset:])
			if err != nil {
				return Value{}, 0, err
			}
			offset += n
			if offset >= len(rest) {
				return Value{}, 0, fmt.Errorf("value: truncated struct field")
			}
			fieldKind := Kind(rest[offset])
			offset++
			// Re-synthesize a self-describing payload for recursion by
			// prefixing the field's own kind byte back on.
			fieldData := append([]byte{byte(fieldKind)}, rest[offset:]...)
			fieldValue, consumed, err := Decode(fieldData)
			if err != nil {
				return Value{}, 0, err
			}
			offset += consumed - 1
			s.Set(string(name), fieldValue)
		}
		return StructVal(s), 1 + offset, nil
	case KindObject:
		return Value{kind: KindObject}, 1, nil
	default:
		return Value{}, 0, fmt.Errorf("value: unknown kind byte %d", kind)
	}
}

func readVarBytes(b []byte) ([]byte, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("value: truncated length prefix")
	}
	n := binary.LittleEndian.Uint32(b[:4])
	if uint32(len(b)-4) < n {
		return nil, 0, fmt.Errorf("value: truncated payload")
	}
	return append([]byte(nil), b[4:4+n]...), 4 + int(n), nil
}

func writeVarBytes(buf *bytes.Buffer, b []byte) {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(b)))
	buf.Write(n[:])
	buf.Write(b)
}

func writeVarString(buf *bytes.Buffer, s string) {
	writeVarBytes(buf, []byte(s))
}

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindBytes:
		return "Bytes"
	case KindString:
		return "String"
	case KindBool:
		return "Bool"
	case KindTimestamp:
		return "Timestamp"
	case KindAddress:
		return "Address"
	case KindStruct:
		return "Struct"
	case KindObject:
		return "Object"
	default:
		return "Unknown"
	}
}
