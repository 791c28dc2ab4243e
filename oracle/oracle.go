// Package oracle implements the Oracle Reader (component F): a
// per-URL cache of externally sourced bytes, guaranteeing that the
// same URL observed twice in one process run returns identical bytes,
// grounded on the teacher's context/memory mutex-guarded-map pattern
// but sized for the oracle's unbounded, long-lived keyspace with
// golang-lru instead of a bare map.
package oracle

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/govm-net/corevm/core"
	"github.com/govm-net/corevm/eventlog"
	"github.com/govm-net/corevm/host"
	"github.com/govm-net/corevm/value"
)

// ErrMalformedURL is returned when an oracle URL does not match the
// grammar of spec.md §6.
var ErrMalformedURL = fmt.Errorf("oracle: malformed url")

// ErrUnresolvedPlatform is returned when an interop:// URL names a
// platform the Nexus does not recognize.
var ErrUnresolvedPlatform = fmt.Errorf("oracle: unresolved platform")

// ErrUnpairedTransfer is returned when a TokenSend in a block has no
// matching TokenReceive/TokenStake to pair into an InteropTransfer.
var ErrUnpairedTransfer = fmt.Errorf("oracle: unpaired interop transfer")

const defaultCacheSize = 4096

// InteropTransfer is the synthesized result of pairing a TokenSend
// with its matching TokenReceive/TokenStake in the same block.
type InteropTransfer struct {
	From, To core.Address
	Symbol   string
	Value    uint64
	RawData  []byte
}

// InteropTransaction wraps the transfers synthesized from one
// transaction's events.
type InteropTransaction struct {
	Transfers []InteropTransfer
}

// InteropBlock describes a foreign-chain block for the `block` oracle
// command.
type InteropBlock struct {
	Platform string
	Chain    string
	Hash     core.Hash
	TxHashes []core.Hash
}

// Reader is the shared, mutex-guarded Oracle cache.
// One Reader instance is shared across all Runtime instances in a
// node (§5 concurrency model); its cache is the only mutable state
// touched by concurrent readers.
type Reader struct {
	mu      sync.Mutex
	cache   *lru.Cache[string, []byte]
	nexus   host.Nexus
	chain   host.ChainStore
	host    host.OracleHost
	fiatDec uint8
}

// New builds a Reader backed by the given Nexus/ChainStore/OracleHost
// and a cache holding up to capacity entries (0 uses a sane default).
func New(nexus host.Nexus, chain host.ChainStore, oh host.OracleHost, fiatDecimals uint8, capacity int) (*Reader, error) {
	if capacity <= 0 {
		capacity = defaultCacheSize
	}
	cache, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("oracle: new cache: %w", err)
	}
	return &Reader{cache: cache, nexus: nexus, chain: chain, host: oh, fiatDec: fiatDecimals}, nil
}

// Read resolves url, consulting the cache first. Concurrent readers
// serialize on the cache mutex; the first writer for a URL wins so
// deterministic replay holds as long as the host hooks are
// deterministic (§4.F).
func (r *Reader) Read(t time.Time, url string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if content, ok := r.cache.Get(url); ok {
		return content, nil
	}

	content, err := r.resolve(t, url)
	if err != nil {
		return nil, err
	}
	r.cache.Add(url, content)
	return content, nil
}

// Clear wipes all cached entries; callers invoke it between blocks
// per §4.F.
func (r *Reader) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Purge()
}

func (r *Reader) resolve(t time.Time, url string) ([]byte, error) {
	switch {
	case strings.HasPrefix(url, "price://"):
		return r.resolvePrice(t, strings.TrimPrefix(url, "price://"))
	case strings.HasPrefix(url, "interop://"):
		return r.resolveInterop(t, strings.TrimPrefix(url, "interop://"))
	default:
		raw, err := r.host.PullData(t, url)
		if err != nil {
			return nil, fmt.Errorf("oracle: pull data %q: %w", url, err)
		}
		return raw, nil
	}
}

func (r *Reader) resolvePrice(t time.Time, symbol string) ([]byte, error) {
	if strings.Contains(symbol, "/") || symbol == "" {
		return nil, fmt.Errorf("%w: bad symbol %q", ErrMalformedURL, symbol)
	}
	if !r.nexus.TokenExists(symbol) {
		return nil, fmt.Errorf("oracle: unknown token %q", symbol)
	}
	price, err := r.host.PullPrice(t, symbol)
	if err != nil {
		return nil, fmt.Errorf("oracle: pull price %q: %w", symbol, err)
	}
	encoded, err := value.Int64(int64(price)).AsBytes()
	if err != nil {
		return nil, fmt.Errorf("oracle: encode price: %w", err)
	}
	return encoded, nil
}

func (r *Reader) resolveInterop(t time.Time, rest string) ([]byte, error) {
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: interop url %q", ErrMalformedURL, rest)
	}
	platform, chain, cmd, arg := parts[0], parts[1], parts[2], parts[3]
	if !r.nexus.PlatformExists(platform) {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedPlatform, platform)
	}

	isLocal := platform == "main" && chain == "root"

	switch cmd {
	case "tx", "transaction":
		return r.resolveInteropTransaction(platform, chain, arg, isLocal, t)
	case "block":
		return r.resolveInteropBlock(platform, chain, arg, isLocal, t)
	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrMalformedURL, cmd)
	}
}

func (r *Reader) resolveInteropTransaction(platform, chain, arg string, isLocal bool, t time.Time) ([]byte, error) {
	hash, err := parseHashArg(arg)
	if err != nil {
		return nil, err
	}

	if !isLocal {
		tx, err := r.host.PullPlatformTransaction(platform, chain, hash)
		if err != nil {
			return nil, fmt.Errorf("oracle: pull platform transaction: %w", err)
		}
		return encodeInteropTx(InteropTransaction{Transfers: []InteropTransfer{{
			From: tx.From, To: tx.To, Value: tx.Value,
		}}}), nil
	}

	blockHash, err := r.chain.GetBlockHashOfTransaction(hash)
	if err != nil {
		return nil, fmt.Errorf("oracle: block of transaction: %w", err)
	}
	block, err := r.chain.GetBlockByHash(blockHash)
	if err != nil {
		return nil, fmt.Errorf("oracle: block by hash: %w", err)
	}

	var allEvents []host.EventRecord
	for _, txHash := range block.TxHashes {
		events, err := r.chain.GetEventsForTransaction(txHash)
		if err != nil {
			return nil, fmt.Errorf("oracle: events for transaction: %w", err)
		}
		allEvents = append(allEvents, events...)
	}

	transfers, err := synthesizeTransfers(allEvents)
	if err != nil {
		return nil, err
	}
	return encodeInteropTx(InteropTransaction{Transfers: transfers}), nil
}

func (r *Reader) resolveInteropBlock(platform, chain, arg string, isLocal bool, t time.Time) ([]byte, error) {
	var block *host.Block
	if height, err := strconv.ParseUint(arg, 10, 64); err == nil {
		if isLocal {
			block, err = r.chain.GetBlockByHeight(height)
			if err != nil {
				return nil, fmt.Errorf("oracle: block by height: %w", err)
			}
		} else {
			block, err = r.host.PullPlatformBlock(platform, chain, core.Hash{}, height)
			if err != nil {
				return nil, fmt.Errorf("oracle: pull platform block: %w", err)
			}
		}
	} else {
		hash, err := parseHashArg(arg)
		if err != nil {
			return nil, err
		}
		if isLocal {
			block, err = r.chain.GetBlockByHash(hash)
			if err != nil {
				return nil, fmt.Errorf("oracle: block by hash: %w", err)
			}
		} else {
			block, err = r.host.PullPlatformBlock(platform, chain, hash, 0)
			if err != nil {
				return nil, fmt.Errorf("oracle: pull platform block: %w", err)
			}
		}
	}
	return encodeInteropBlock(InteropBlock{
		Platform: platform, Chain: chain, Hash: block.Hash, TxHashes: block.TxHashes,
	}), nil
}

// synthesizeTransfers pairs TokenSend events with a matching
// TokenReceive/TokenStake on the same {symbol,value}, attaching a
// PackedNFT payload when present, per §4.F.
func synthesizeTransfers(events []host.EventRecord) ([]InteropTransfer, error) {
	type sendRecord struct {
		ev   host.EventRecord
		used bool
	}
	var sends []sendRecord
	for _, ev := range events {
		if eventlog.Kind(ev.Kind) == eventlog.TokenSend {
			sends = append(sends, sendRecord{ev: ev})
		}
	}

	var transfers []InteropTransfer
	for i := range sends {
		send := &sends[i]
		matched := false
		for _, ev := range events {
			k := eventlog.Kind(ev.Kind)
			if k != eventlog.TokenReceive && k != eventlog.TokenStake {
				continue
			}
			if string(ev.Data) != string(send.ev.Data) {
				continue
			}
			symbol, amount, err := parseTransferPayload(send.ev.Data)
			if err != nil {
				return nil, err
			}
			transfer := InteropTransfer{
				From:   send.ev.Address,
				To:     ev.Address,
				Symbol: symbol,
				Value:  amount,
			}
			for _, nftEv := range events {
				if eventlog.Kind(nftEv.Kind) == eventlog.PackedNFT && string(nftEv.Data) == string(send.ev.Data) {
					transfer.RawData = nftEv.Data
				}
			}
			transfers = append(transfers, transfer)
			send.used = true
			matched = true
			break
		}
		if !matched {
			return nil, fmt.Errorf("%w: send from %s unpaired", ErrUnpairedTransfer, send.ev.Address)
		}
	}
	return transfers, nil
}

// parseTransferPayload decodes a TokenSend/TokenReceive/TokenStake
// event's "SYMBOL:AMOUNT" pairing key into its parts.
func parseTransferPayload(data []byte) (symbol string, amount uint64, err error) {
	parts := strings.SplitN(string(data), ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("oracle: malformed transfer payload %q", data)
	}
	amount, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("oracle: malformed transfer payload %q: %w", data, err)
	}
	return parts[0], amount, nil
}

func parseHashArg(arg string) (core.Hash, error) {
	return core.HashFromString(arg), nil
}

func encodeInteropTx(tx InteropTransaction) []byte {
	s := value.NewStruct()
	for i, tr := range tx.Transfers {
		ts := value.NewStruct()
		ts.Set("from", value.AddressVal(tr.From))
		ts.Set("to", value.AddressVal(tr.To))
		ts.Set("symbol", value.String(tr.Symbol))
		ts.Set("value", value.Int64(int64(tr.Value)))
		ts.Set("data", value.Bytes(tr.RawData))
		s.Set(strconv.Itoa(i), value.StructVal(ts))
	}
	return value.Encode(value.StructVal(s))
}

func encodeInteropBlock(b InteropBlock) []byte {
	s := value.NewStruct()
	s.Set("platform", value.String(b.Platform))
	s.Set("chain", value.String(b.Chain))
	s.Set("hash", value.Bytes(b.Hash[:]))
	txs := value.NewStruct()
	for i, h := range b.TxHashes {
		txs.Set(strconv.Itoa(i), value.Bytes(h[:]))
	}
	s.Set("txHashes", value.StructVal(txs))
	return value.Encode(value.StructVal(s))
}
