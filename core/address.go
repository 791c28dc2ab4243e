// Package core provides the fundamental identity primitives shared by
// every other package in the module: addresses, object identifiers and
// content hashes.
package core

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// AddressSize is the wire size of an Address: one discriminant byte
// followed by a 33-byte payload.
const AddressSize = 34

// Kind discriminates the three address spaces the runtime recognizes.
type Kind byte

const (
	// KindUser identifies a public-key-derived account address.
	KindUser Kind = iota
	// KindSystem identifies a contract-derived address, produced by
	// hashing a contract name.
	KindSystem
	// KindInterop identifies a foreign-chain identity.
	KindInterop
)

// Address is a 34-byte identity: a discriminant byte plus a 33-byte
// payload. Equality is byte-wise.
type Address [AddressSize]byte

// ZeroAddress is the null identity.
var ZeroAddress = Address{}

// NewAddress builds an Address of the given kind from a payload,
// truncating or zero-padding the payload to 33 bytes.
func NewAddress(kind Kind, payload []byte) Address {
	var addr Address
	addr[0] = byte(kind)
	n := copy(addr[1:], payload)
	_ = n
	return addr
}

// SystemAddress derives the System address for a contract name: the
// discriminant byte followed by the SHA-256 hash of the name.
func SystemAddress(contractName string) Address {
	h := sha256.Sum256([]byte(contractName))
	return NewAddress(KindSystem, h[:])
}

// Kind returns the address's discriminant.
func (a Address) Kind() Kind { return Kind(a[0]) }

// IsUser reports whether a is a User address.
func (a Address) IsUser() bool { return a.Kind() == KindUser && a != ZeroAddress }

// IsSystem reports whether a is a System (contract) address.
func (a Address) IsSystem() bool { return a.Kind() == KindSystem }

// IsInterop reports whether a is an Interop (foreign-chain) address.
func (a Address) IsInterop() bool { return a.Kind() == KindInterop }

// IsNull reports whether a is the zero address.
func (a Address) IsNull() bool { return a == ZeroAddress }

// String returns the hex encoding of the address.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// AddressFromString parses the hex encoding produced by String.
func AddressFromString(s string) (Address, error) {
	var addr Address
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return addr, err
	}
	if len(raw) != AddressSize {
		return addr, ErrInvalidArgument
	}
	copy(addr[:], raw)
	return addr, nil
}

// ObjectID uniquely identifies a state object within the change set.
type ObjectID [32]byte

// ZeroObjectID is the null object identifier.
var ZeroObjectID = ObjectID{}

func (id ObjectID) String() string { return hex.EncodeToString(id[:]) }

// ObjectIDFromString parses the hex encoding produced by String.
func ObjectIDFromString(s string) ObjectID {
	var id ObjectID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id
	}
	copy(id[:], raw)
	return id
}

// Hash is a 32-byte content hash (transaction hash, block hash, ...).
type Hash [32]byte

var ZeroHash = Hash{}

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// HashFromString parses the hex encoding produced by String.
func HashFromString(s string) Hash {
	var h Hash
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h
	}
	copy(h[:], raw)
	return h
}

// Sum computes the SHA-256 hash of data.
func Sum(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("unauthorized operation")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrContractNotFound  = errors.New("contract not found")
	ErrFunctionNotFound  = errors.New("function not found")
	ErrExecutionReverted = errors.New("execution reverted")
	ErrObjectNotFound    = errors.New("object not found")
	ErrInvalidObjectType = errors.New("invalid object type")
)
