package oracle

import (
	"testing"
	"time"

	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/eventlog"
	"github.com/govm-net/corevm/host"
	"github.com/govm-net/corevm/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReader(t *testing.T) (*Reader, *host.MockNexus, *host.MockChainStore, *host.MockOracleHost) {
	t.Helper()
	nexus := host.NewMockNexus()
	chain := host.NewMockChainStore()
	oh := host.NewMockOracleHost()
	r, err := New(nexus, chain, oh, 8, 0)
	require.NoError(t, err)
	return r, nexus, chain, oh
}

func TestPriceReadIsCachedAfterFirstPull(t *testing.T) {
	r, nexus, _, oh := newTestReader(t)
	nexus.PutToken(host.TokenInfo{Symbol: "SOUL"})
	oh.Prices["SOUL"] = 42

	b1, err := r.Read(time.Now(), "price://SOUL")
	require.NoError(t, err)
	b2, err := r.Read(time.Now(), "price://SOUL")
	require.NoError(t, err)

	assert.Equal(t, b1, b2)
	assert.Equal(t, 1, oh.PullPriceCalls)
}

func TestPriceReadRejectsUnknownToken(t *testing.T) {
	r, _, _, _ := newTestReader(t)
	_, err := r.Read(time.Now(), "price://GHOST")
	assert.Error(t, err)
}

func TestPriceReadRejectsSlashInSymbol(t *testing.T) {
	r, _, _, _ := newTestReader(t)
	_, err := r.Read(time.Now(), "price://SOUL/BTC")
	assert.ErrorIs(t, err, ErrMalformedURL)
}

func TestInteropTransactionSynthesizesTransfer(t *testing.T) {
	r, nexus, chain, _ := newTestReader(t)
	nexus.Platforms["main"] = true

	txHash := core.Sum([]byte("tx1"))
	blockHash := core.Sum([]byte("block1"))
	from := core.SystemAddress("alice")
	to := core.SystemAddress("bob")

	chain.PutBlock(&host.Block{Hash: blockHash, Height: 1, TxHashes: []core.Hash{txHash}})
	chain.PutTransaction(&host.Transaction{Hash: txHash, BlockHash: blockHash}, []host.EventRecord{
		{Kind: uint8(eventlog.TokenSend), Address: from, Data: []byte("SYM:10")},
		{Kind: uint8(eventlog.TokenReceive), Address: to, Data: []byte("SYM:10")},
	})

	url := "interop://main/root/tx/" + txHash.String()
	content, err := r.Read(time.Now(), url)
	require.NoError(t, err)

	decoded, _, err := value.Decode(content)
	require.NoError(t, err)
	s, err := decoded.AsStruct()
	require.NoError(t, err)
	transferVal, ok := s.Get("0")
	require.True(t, ok)
	transfer, err := transferVal.AsStruct()
	require.NoError(t, err)

	fromVal, ok := transfer.Get("from")
	require.True(t, ok)
	gotFrom, err := fromVal.AsAddress()
	require.NoError(t, err)
	assert.Equal(t, from, gotFrom)

	toVal, ok := transfer.Get("to")
	require.True(t, ok)
	gotTo, err := toVal.AsAddress()
	require.NoError(t, err)
	assert.Equal(t, to, gotTo)

	symbolVal, ok := transfer.Get("symbol")
	require.True(t, ok)
	gotSymbol, err := symbolVal.AsString()
	require.NoError(t, err)
	assert.Equal(t, "SYM", gotSymbol)

	amountVal, ok := transfer.Get("value")
	require.True(t, ok)
	gotAmount, err := amountVal.AsInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(10), gotAmount.Int64())
}

func TestInteropTransactionFaultsOnUnpairedSend(t *testing.T) {
	r, nexus, chain, _ := newTestReader(t)
	nexus.Platforms["main"] = true

	txHash := core.Sum([]byte("tx2"))
	blockHash := core.Sum([]byte("block2"))
	from := core.SystemAddress("alice")

	chain.PutBlock(&host.Block{Hash: blockHash, Height: 2, TxHashes: []core.Hash{txHash}})
	chain.PutTransaction(&host.Transaction{Hash: txHash, BlockHash: blockHash}, []host.EventRecord{
		{Kind: uint8(eventlog.TokenSend), Address: from, Data: []byte("SYM:10")},
	})

	url := "interop://main/root/tx/" + txHash.String()
	_, err := r.Read(time.Now(), url)
	assert.ErrorIs(t, err, ErrUnpairedTransfer)
}

func TestInteropRejectsUnknownPlatform(t *testing.T) {
	r, _, _, _ := newTestReader(t)
	_, err := r.Read(time.Now(), "interop://ghost/root/tx/00")
	assert.ErrorIs(t, err, ErrUnresolvedPlatform)
}

func TestClearPurgesCache(t *testing.T) {
	r, nexus, _, oh := newTestReader(t)
	nexus.PutToken(host.TokenInfo{Symbol: "SOUL"})
	oh.Prices["SOUL"] = 7

	_, err := r.Read(time.Now(), "price://SOUL")
	require.NoError(t, err)
	r.Clear()
	_, err = r.Read(time.Now(), "price://SOUL")
	require.NoError(t, err)
	assert.Equal(t, 2, oh.PullPriceCalls)
}

func TestOtherURLFallsThroughToPullData(t *testing.T) {
	r, _, _, oh := newTestReader(t)
	oh.Data["custom://thing"] = []byte("payload")

	content, err := r.Read(time.Now(), "custom://thing")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
	assert.Equal(t, 1, oh.PullDataCalls)
}
