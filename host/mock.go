package host

import (
	"time"

	"github.com/govm-net/corevm/core"
)

// MockChainStore is an in-memory ChainStore test double.
type MockChainStore struct {
	BlocksByHash   map[core.Hash]*Block
	BlocksByHeight map[uint64]*Block
	Transactions   map[core.Hash]*Transaction
	TxBlockHash    map[core.Hash]core.Hash
	TxEvents       map[core.Hash][]EventRecord
}

// NewMockChainStore returns an empty MockChainStore ready for fixture setup.
func NewMockChainStore() *MockChainStore {
	return &MockChainStore{
		BlocksByHash:   make(map[core.Hash]*Block),
		BlocksByHeight: make(map[uint64]*Block),
		Transactions:   make(map[core.Hash]*Transaction),
		TxBlockHash:    make(map[core.Hash]core.Hash),
		TxEvents:       make(map[core.Hash][]EventRecord),
	}
}

// PutBlock registers a block under both its hash and height.
func (m *MockChainStore) PutBlock(b *Block) {
	m.BlocksByHash[b.Hash] = b
	m.BlocksByHeight[b.Height] = b
}

// PutTransaction registers a transaction, its containing block, and the
// events it produced.
func (m *MockChainStore) PutTransaction(tx *Transaction, events []EventRecord) {
	m.Transactions[tx.Hash] = tx
	m.TxBlockHash[tx.Hash] = tx.BlockHash
	m.TxEvents[tx.Hash] = events
}

func (m *MockChainStore) GetBlockByHash(hash core.Hash) (*Block, error) {
	b, ok := m.BlocksByHash[hash]
	if !ok {
		return nil, core.ErrObjectNotFound
	}
	return b, nil
}

func (m *MockChainStore) GetBlockByHeight(height uint64) (*Block, error) {
	b, ok := m.BlocksByHeight[height]
	if !ok {
		return nil, core.ErrObjectNotFound
	}
	return b, nil
}

func (m *MockChainStore) GetTransactionByHash(hash core.Hash) (*Transaction, error) {
	tx, ok := m.Transactions[hash]
	if !ok {
		return nil, core.ErrObjectNotFound
	}
	return tx, nil
}

func (m *MockChainStore) GetBlockHashOfTransaction(hash core.Hash) (core.Hash, error) {
	h, ok := m.TxBlockHash[hash]
	if !ok {
		return core.Hash{}, core.ErrObjectNotFound
	}
	return h, nil
}

func (m *MockChainStore) GetEventsForTransaction(hash core.Hash) ([]EventRecord, error) {
	events, ok := m.TxEvents[hash]
	if !ok {
		return nil, core.ErrObjectNotFound
	}
	return events, nil
}

// MockNexus is an in-memory Nexus test double.
type MockNexus struct {
	Tokens      map[string]TokenInfo
	Platforms   map[string]bool
	Governance  map[string]int64
	Scripts     map[core.Address][]byte
	Names       map[string]core.Address
	Addresses   map[core.Address]string
	GenesisFlag bool
	Transfers   []mockTransfer
}

type mockTransfer struct {
	Symbol     string
	From, To   core.Address
	Amount     uint64
}

// NewMockNexus returns an empty MockNexus test double.
func NewMockNexus() *MockNexus {
	return &MockNexus{
		Tokens:     make(map[string]TokenInfo),
		Platforms:  make(map[string]bool),
		Governance: make(map[string]int64),
		Scripts:    make(map[core.Address][]byte),
		Names:      make(map[string]core.Address),
		Addresses:  make(map[core.Address]string),
	}
}

// PutToken registers token info under its symbol.
func (m *MockNexus) PutToken(info TokenInfo) { m.Tokens[info.Symbol] = info }

// PutContract registers a name<->address mapping with an optional script.
func (m *MockNexus) PutContract(name string, addr core.Address, script []byte) {
	m.Names[name] = addr
	m.Addresses[addr] = name
	if script != nil {
		m.Scripts[addr] = script
	}
}

func (m *MockNexus) TokenExists(symbol string) bool { _, ok := m.Tokens[symbol]; return ok }

func (m *MockNexus) GetTokenInfo(symbol string) (TokenInfo, error) {
	info, ok := m.Tokens[symbol]
	if !ok {
		return TokenInfo{}, core.ErrObjectNotFound
	}
	return info, nil
}

func (m *MockNexus) PlatformExists(platform string) bool { return m.Platforms[platform] }

func (m *MockNexus) GetGovernanceValue(name string) (int64, error) {
	v, ok := m.Governance[name]
	if !ok {
		return 0, core.ErrObjectNotFound
	}
	return v, nil
}

func (m *MockNexus) HasScript(address core.Address) bool {
	_, ok := m.Scripts[address]
	return ok
}

func (m *MockNexus) LookUpAddressScript(address core.Address) ([]byte, error) {
	s, ok := m.Scripts[address]
	if !ok {
		return nil, core.ErrContractNotFound
	}
	return s, nil
}

func (m *MockNexus) AllocContractByName(name string) (core.Address, error) {
	addr, ok := m.Names[name]
	if !ok {
		return core.ZeroAddress, core.ErrContractNotFound
	}
	return addr, nil
}

func (m *MockNexus) AllocContractByAddress(address core.Address) (string, error) {
	name, ok := m.Addresses[address]
	if !ok {
		return "", core.ErrContractNotFound
	}
	return name, nil
}

func (m *MockNexus) TransferTokens(symbol string, from, to core.Address, amount uint64) error {
	m.Transfers = append(m.Transfers, mockTransfer{Symbol: symbol, From: from, To: to, Amount: amount})
	return nil
}

func (m *MockNexus) RootStorage() string { return "mock" }

func (m *MockNexus) HasGenesis() bool { return m.GenesisFlag }

// MockOracleHost is an in-memory OracleHost test double; its
// PullDataCalls and PullPriceCalls fields count calls so tests can
// assert on cache-hit behavior (§8 scenario 4).
type MockOracleHost struct {
	Data            map[string][]byte
	Prices          map[string]uint64
	Blocks          map[string]*Block
	Transactions    map[string]*Transaction
	Heights         map[string]uint64
	PullDataCalls   int
	PullPriceCalls  int
}

// NewMockOracleHost returns an empty MockOracleHost test double.
func NewMockOracleHost() *MockOracleHost {
	return &MockOracleHost{
		Data:         make(map[string][]byte),
		Prices:       make(map[string]uint64),
		Blocks:       make(map[string]*Block),
		Transactions: make(map[string]*Transaction),
		Heights:      make(map[string]uint64),
	}
}

func (m *MockOracleHost) PullData(t time.Time, url string) ([]byte, error) {
	m.PullDataCalls++
	v, ok := m.Data[url]
	if !ok {
		return nil, core.ErrObjectNotFound
	}
	return v, nil
}

func (m *MockOracleHost) PullPrice(t time.Time, symbol string) (uint64, error) {
	m.PullPriceCalls++
	v, ok := m.Prices[symbol]
	if !ok {
		return 0, core.ErrObjectNotFound
	}
	return v, nil
}

func (m *MockOracleHost) PullPlatformBlock(platform, chain string, hash core.Hash, height uint64) (*Block, error) {
	b, ok := m.Blocks[platform+"/"+chain+"/"+hash.String()]
	if !ok {
		return nil, core.ErrObjectNotFound
	}
	return b, nil
}

func (m *MockOracleHost) PullPlatformTransaction(platform, chain string, hash core.Hash) (*Transaction, error) {
	tx, ok := m.Transactions[platform+"/"+chain+"/"+hash.String()]
	if !ok {
		return nil, core.ErrObjectNotFound
	}
	return tx, nil
}

func (m *MockOracleHost) GetCurrentHeight(platform, chain string) (uint64, error) {
	return m.Heights[platform+"/"+chain], nil
}

func (m *MockOracleHost) SetCurrentHeight(platform, chain string, height uint64) error {
	m.Heights[platform+"/"+chain] = height
	return nil
}

func (m *MockOracleHost) ReadAllBlocks(platform, chain string) ([]*Block, error) {
	var out []*Block
	for _, b := range m.Blocks {
		if b.Platform == platform && b.Chain == chain {
			out = append(out, b)
		}
	}
	return out, nil
}

// MockInteropResolver records WithdrawTokens calls.
type MockInteropResolver struct {
	Withdrawals []mockTransfer
}

// NewMockInteropResolver returns an empty MockInteropResolver.
func NewMockInteropResolver() *MockInteropResolver { return &MockInteropResolver{} }

func (m *MockInteropResolver) WithdrawTokens(source, destination core.Address, symbol string, amount uint64) error {
	m.Withdrawals = append(m.Withdrawals, mockTransfer{Symbol: symbol, From: source, To: destination, Amount: amount})
	return nil
}
