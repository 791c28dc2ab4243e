// Package eventlog implements the append-only, per-transaction Event
// Log (component G): the Event wire format of spec.md §3 and the
// contract-scoped emission authorization table of §4.E.
package eventlog

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/govm-net/corevm/core"
)

// Kind is the closed set of event kinds the runtime recognizes.
type Kind uint8

const (
	ChainCreate Kind = iota
	BlockCreate
	BlockClose
	TokenCreate
	TokenSend
	TokenReceive
	TokenMint
	TokenBurn
	TokenStake
	TokenUnstake
	TokenClaim
	RoleChange
	AddressChange
	GasEscrow
	GasPayment
	GasLoan
	OrderCreate
	OrderFill
	OrderCancel
	FeedCreate
	FileCreate
	FileDelete
	ValidatorPropose
	ValidatorElect
	ValidatorRemove
	ValidatorSwitch
	BrokerRequest
	ValueCreate
	ValueUpdate
	PollCreated
	PollClosed
	PollVote
	ChannelEvent
	LeaderboardEvent
	MetadataEvent
	PackedNFT

	// CustomBase is the first of the open-ended Custom+N range.
	CustomBase Kind = 128
)

// Custom returns the Kind for Custom+n.
func Custom(n uint8) Kind { return CustomBase + Kind(n) }

// IsCustom reports whether k is in the Custom+N range.
func (k Kind) IsCustom() bool { return k >= CustomBase }

// Event is a single, contract-attributed log record.
type Event struct {
	Kind     Kind
	Address  core.Address
	Contract string
	Data     []byte
}

// Serialize writes the event in the exact little-endian wire layout of
// spec.md §3: kind(u8) | address(34) | varstring(contract) | varbytes(data).
func (e Event) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(e.Kind))
	buf.Write(e.Address[:])
	writeVarString(&buf, e.Contract)
	writeVarBytes(&buf, e.Data)
	return buf.Bytes()
}

// Unserialize parses the wire layout written by Serialize.
func Unserialize(raw []byte) (Event, error) {
	var e Event
	if len(raw) < 1+core.AddressSize {
		return e, fmt.Errorf("eventlog: truncated event header")
	}
	e.Kind = Kind(raw[0])
	copy(e.Address[:], raw[1:1+core.AddressSize])
	rest := raw[1+core.AddressSize:]

	contract, rest, err := readVarString(rest)
	if err != nil {
		return e, err
	}
	e.Contract = contract

	data, rest, err := readVarBytes(rest)
	if err != nil {
		return e, err
	}
	if len(rest) != 0 {
		return e, fmt.Errorf("eventlog: trailing bytes after event")
	}
	e.Data = data
	return e, nil
}

func writeVarBytes(buf *bytes.Buffer, b []byte) {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(b)))
	buf.Write(n[:])
	buf.Write(b)
}

func writeVarString(buf *bytes.Buffer, s string) { writeVarBytes(buf, []byte(s)) }

func readVarBytes(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, fmt.Errorf("eventlog: truncated length prefix")
	}
	n := binary.LittleEndian.Uint32(b[:4])
	b = b[4:]
	if uint32(len(b)) < n {
		return nil, nil, fmt.Errorf("eventlog: truncated payload")
	}
	return append([]byte(nil), b[:n]...), b[n:], nil
}

func readVarString(b []byte) (string, []byte, error) {
	raw, rest, err := readVarBytes(b)
	if err != nil {
		return "", nil, err
	}
	return string(raw), rest, nil
}

// Log is the append-only, per-transaction event sequence (component G).
type Log struct {
	events []Event
}

// Append records an event in emission order.
func (l *Log) Append(e Event) { l.events = append(l.events, e) }

// Events returns the log contents in emission order.
func (l *Log) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *Log) Len() int { return len(l.events) }

// AppendFrom merges another log's events onto the end of this one, in
// the child's program order — used when a trigger's child Runtime
// halts successfully (§4.E InvokeTrigger).
func (l *Log) AppendFrom(child *Log) {
	l.events = append(l.events, child.events...)
}

// RequiredContract returns the contract name allowed to emit kind, and
// whether emission of kind is restricted to a single contract at all
// (per the authorization table in spec.md §4.E). Kinds not present in
// the table may be emitted by any contract.
func RequiredContract(kind Kind) (contract string, restricted bool) {
	switch kind {
	case GasEscrow, GasPayment, GasLoan:
		return "gas", true
	case BlockCreate, BlockClose, ValidatorSwitch:
		return "block", true
	case PollCreated, PollClosed, PollVote:
		return "consensus", true
	case ChainCreate, TokenCreate, FeedCreate:
		return "nexus", true
	case FileCreate, FileDelete:
		return "storage", true
	case ValidatorPropose, ValidatorElect, ValidatorRemove:
		return "validator", true
	case BrokerRequest:
		return "interop", true
	case ValueCreate, ValueUpdate:
		return "governance", true
	default:
		return "", false
	}
}

// Authorize checks whether emittingContract may emit kind, per the
// authorization table.
func Authorize(kind Kind, emittingContract string) error {
	required, restricted := RequiredContract(kind)
	if !restricted {
		return nil
	}
	if emittingContract != required {
		return fmt.Errorf("event kind %d only in %s contract", kind, required)
	}
	return nil
}
