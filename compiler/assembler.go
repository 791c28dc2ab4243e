// Package compiler assembles line-oriented opcode mnemonic source into
// the executable bytecode the interpreter dispatches (vm.Interpreter),
// the way the teacher's Maker turned Go source into wasm: validate
// size and instruction set, then emit the artifact.
package compiler

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/govm-net/corevm/opcode"
	"github.com/govm-net/corevm/value"
)

// MaxCodeSize bounds the size of assembled bytecode a contract may
// register.
const MaxCodeSize = 64 * 1024

// pendingPatch records a placeholder 4-byte offset in the output
// buffer that must be rewritten once every label's address is known.
type pendingPatch struct {
	at    int
	label string
}

// Assembler turns mnemonic source text into bytecode.
type Assembler struct {
	buf     []byte
	labels  map[string]int
	patches []pendingPatch
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{labels: make(map[string]int)}
}

// Assemble parses source, one instruction or "label:" declaration per
// line, and returns the resulting bytecode.
func Assemble(source string) ([]byte, error) {
	a := NewAssembler()
	if err := a.firstPass(source); err != nil {
		return nil, err
	}
	if err := a.patchLabels(); err != nil {
		return nil, err
	}
	if len(a.buf) > MaxCodeSize {
		return nil, fmt.Errorf("compiler: assembled code exceeds %d bytes", MaxCodeSize)
	}
	return a.buf, nil
}

func (a *Assembler) firstPass(source string) error {
	lines := strings.Split(source, "\n")
	for lineNo := 0; lineNo < len(lines); lineNo++ {
		line := stripComment(lines[lineNo])
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, ":") {
			label := strings.TrimSuffix(line, ":")
			if _, exists := a.labels[label]; exists {
				return fmt.Errorf("compiler: line %d: duplicate label %q", lineNo+1, label)
			}
			a.labels[label] = len(a.buf)
			continue
		}

		fields := strings.Fields(line)
		mnemonic := strings.ToUpper(fields[0])

		if mnemonic == "CASE" {
			return fmt.Errorf("compiler: line %d: CASE outside of SWITCH", lineNo+1)
		}
		if mnemonic == "SWITCH" {
			consumed, err := a.assembleSwitch(lines, lineNo, fields)
			if err != nil {
				return err
			}
			lineNo += consumed
			continue
		}

		if err := a.assembleInstruction(lineNo, mnemonic, fields[1:]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) assembleInstruction(lineNo int, mnemonic string, args []string) error {
	op, ok := opcode.Lookup(mnemonic)
	if !ok {
		return fmt.Errorf("compiler: line %d: unknown mnemonic %q", lineNo+1, mnemonic)
	}
	a.buf = append(a.buf, byte(op))

	switch {
	case opcode.TakesValueOperand(op):
		if len(args) != 1 {
			return fmt.Errorf("compiler: line %d: %s takes one value operand", lineNo+1, mnemonic)
		}
		v, err := parseLiteral(args[0])
		if err != nil {
			return fmt.Errorf("compiler: line %d: %v", lineNo+1, err)
		}
		a.buf = append(a.buf, value.Encode(v)...)

	case opcode.TakesStringOperand(op):
		if len(args) != 1 {
			return fmt.Errorf("compiler: line %d: %s takes one string operand", lineNo+1, mnemonic)
		}
		s, err := parseString(args[0])
		if err != nil {
			return fmt.Errorf("compiler: line %d: %v", lineNo+1, err)
		}
		a.writeVarString(s)

	case opcode.TakesIndexOperand(op):
		if len(args) != 1 {
			return fmt.Errorf("compiler: line %d: %s takes one index operand", lineNo+1, mnemonic)
		}
		idx, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return fmt.Errorf("compiler: line %d: bad index %q: %v", lineNo+1, args[0], err)
		}
		a.buf = append(a.buf, byte(idx))

	case opcode.TakesOffsetOperand(op):
		if len(args) != 1 {
			return fmt.Errorf("compiler: line %d: %s takes one label operand", lineNo+1, mnemonic)
		}
		a.patches = append(a.patches, pendingPatch{at: len(a.buf), label: args[0]})
		a.buf = append(a.buf, 0, 0, 0, 0)

	default:
		if len(args) != 0 {
			return fmt.Errorf("compiler: line %d: %s takes no operands", lineNo+1, mnemonic)
		}
	}
	return nil
}

// assembleSwitch parses "SWITCH n" followed by n "CASE <value> <label>"
// lines, emitting SWITCH's wire format: a case-count byte, then that
// many (encoded value, 4-byte offset) pairs. It returns how many
// additional source lines it consumed.
func (a *Assembler) assembleSwitch(lines []string, lineNo int, fields []string) (int, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("compiler: line %d: SWITCH takes a case count", lineNo+1)
	}
	count, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil {
		return 0, fmt.Errorf("compiler: line %d: bad case count %q: %v", lineNo+1, fields[1], err)
	}

	a.buf = append(a.buf, byte(opcode.SWITCH), byte(count))

	consumed := 0
	seen := 0
	for i := lineNo + 1; i < len(lines) && seen < int(count); i++ {
		consumed++
		line := strings.TrimSpace(stripComment(lines[i]))
		if line == "" {
			continue
		}
		caseFields := strings.Fields(line)
		if len(caseFields) != 3 || strings.ToUpper(caseFields[0]) != "CASE" {
			return 0, fmt.Errorf("compiler: line %d: expected CASE, got %q", i+1, line)
		}
		v, err := parseLiteral(caseFields[1])
		if err != nil {
			return 0, fmt.Errorf("compiler: line %d: %v", i+1, err)
		}
		a.buf = append(a.buf, value.Encode(v)...)
		a.patches = append(a.patches, pendingPatch{at: len(a.buf), label: caseFields[2]})
		a.buf = append(a.buf, 0, 0, 0, 0)
		seen++
	}
	if seen != int(count) {
		return 0, fmt.Errorf("compiler: line %d: SWITCH declared %d cases, found %d", lineNo+1, count, seen)
	}
	return consumed, nil
}

func (a *Assembler) patchLabels() error {
	for _, p := range a.patches {
		addr, ok := a.labels[p.label]
		if !ok {
			return fmt.Errorf("compiler: undefined label %q", p.label)
		}
		binary.LittleEndian.PutUint32(a.buf[p.at:p.at+4], uint32(addr))
	}
	return nil
}

func (a *Assembler) writeVarString(s string) {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
	a.buf = append(a.buf, n[:]...)
	a.buf = append(a.buf, s...)
}

func parseString(tok string) (string, error) {
	return strconv.Unquote(tok)
}

// parseLiteral parses a PUSH/CASE operand: a quoted string, true/false,
// or a base-10 (optionally signed) integer.
func parseLiteral(tok string) (value.Value, error) {
	if strings.HasPrefix(tok, `"`) {
		s, err := strconv.Unquote(tok)
		if err != nil {
			return value.Value{}, fmt.Errorf("bad string literal %q: %v", tok, err)
		}
		return value.String(s), nil
	}
	if tok == "true" || tok == "false" {
		return value.Bool(tok == "true"), nil
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return value.Value{}, fmt.Errorf("bad literal %q: %v", tok, err)
	}
	return value.Int64(n), nil
}

func stripComment(line string) string {
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = line[:idx]
	}
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	return line
}
