// Package host declares the hooks the runtime consumes from the
// surrounding node (chain storage, the chain/token/platform registry,
// oracle data sources, and interop withdrawal handling), mirroring the
// teacher's pattern of small, host-injected interfaces (context.Context,
// types.BlockchainContext) rather than global lookups.
package host

import (
	"time"

	"github.com/govm-net/corevm/core"
)

// Block is the minimal chain-block shape the oracle needs to pair
// interop events and resolve block-by-hash/height lookups.
type Block struct {
	Hash      core.Hash
	Height    uint64
	Platform  string
	Chain     string
	TxHashes  []core.Hash
	Timestamp int64
}

// EventRecord is a host-surfaced view of one event previously emitted
// in a transaction, used by the oracle to synthesize interop transfers.
type EventRecord struct {
	Kind     uint8
	Address  core.Address
	Contract string
	Data     []byte
}

// Transaction is the minimal chain-transaction shape.
type Transaction struct {
	Hash      core.Hash
	BlockHash core.Hash
	From      core.Address
	To        core.Address
	Value     uint64
}

// TokenInfo describes a registered token's fixed-point shape.
type TokenInfo struct {
	Symbol   string
	Decimals uint8
	IsFiat   bool
	IsFuel   bool
	IsNFT    bool
}

// ChainStore answers read-only historical chain queries (§6 ChainStore).
type ChainStore interface {
	GetBlockByHash(hash core.Hash) (*Block, error)
	GetBlockByHeight(height uint64) (*Block, error)
	GetTransactionByHash(hash core.Hash) (*Transaction, error)
	GetBlockHashOfTransaction(hash core.Hash) (core.Hash, error)
	GetEventsForTransaction(hash core.Hash) ([]EventRecord, error)
}

// Nexus is the registry of chains, tokens, platforms, and governance
// values (§6 Nexus, GLOSSARY).
type Nexus interface {
	TokenExists(symbol string) bool
	GetTokenInfo(symbol string) (TokenInfo, error)
	PlatformExists(platform string) bool
	GetGovernanceValue(name string) (int64, error)
	HasScript(address core.Address) bool
	LookUpAddressScript(address core.Address) ([]byte, error)
	AllocContractByName(name string) (core.Address, error)
	AllocContractByAddress(address core.Address) (string, error)
	TransferTokens(symbol string, from, to core.Address, amount uint64) error
	RootStorage() string
	HasGenesis() bool
}

// PriceSource answers fiat price lookups for GetTokenPrice/PullPrice.
type PriceSource interface {
	PullPrice(t time.Time, symbol string) (uint64, error)
}

// OracleHost is the abstract host surface the Oracle Reader pulls
// through on a cache miss (§6 OracleHost).
type OracleHost interface {
	PullData(t time.Time, url string) ([]byte, error)
	PullPrice(t time.Time, symbol string) (uint64, error)
	PullPlatformBlock(platform, chain string, hash core.Hash, height uint64) (*Block, error)
	PullPlatformTransaction(platform, chain string, hash core.Hash) (*Transaction, error)
	GetCurrentHeight(platform, chain string) (uint64, error)
	SetCurrentHeight(platform, chain string, height uint64) error
	ReadAllBlocks(platform, chain string) ([]*Block, error)
}

// InteropResolver receives cross-chain withdrawal requests raised by
// the runtime (§6 InteropResolver).
type InteropResolver interface {
	WithdrawTokens(source, destination core.Address, symbol string, amount uint64) error
}

// WitnessSet carries the signature set attached to the enclosing
// transaction, consulted by Runtime.IsWitness.
type WitnessSet struct {
	Signers map[core.Address]bool
}

// NewWitnessSet builds a WitnessSet from a list of signer addresses.
func NewWitnessSet(signers ...core.Address) WitnessSet {
	ws := WitnessSet{Signers: make(map[core.Address]bool, len(signers))}
	for _, a := range signers {
		ws.Signers[a] = true
	}
	return ws
}

// Has reports whether address is among the recorded signers.
func (w WitnessSet) Has(address core.Address) bool {
	return w.Signers[address]
}
