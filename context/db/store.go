// Package db implements a SQLite-backed changeset.RootStore using
// GORM, adapted from the teacher's context/db.Context: the same
// AutoMigrate-on-open idiom, now over one key/value table instead of a
// table per concern, since the change set generalizes object/balance/
// contract-code storage behind a single flat keyspace.
package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/govm-net/corevm/changeset"
	"github.com/govm-net/corevm/context"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const defaultDBPath = "./corevm.db"

// DBEntry is the row shape backing the flat key/value RootStore.
type DBEntry struct {
	Key   string `gorm:"column:entry_key;primaryKey;size:255"`
	Value []byte `gorm:"column:entry_value;type:blob"`
}

func (DBEntry) TableName() string { return "changeset_entries" }

// DBEvent mirrors the teacher's context/db.DBEvent table, kept as-is
// for durable event log persistence (component G).
type DBEvent struct {
	gorm.Model
	BlockHeight uint64 `gorm:"column:block_height;index"`
	TxHash      string `gorm:"column:tx_hash;index;size:66"`
	Contract    string `gorm:"column:contract_address;index;size:64"`
	Kind        uint8  `gorm:"column:event_kind"`
	Address     string `gorm:"column:event_address;size:68"`
	Data        []byte `gorm:"column:event_data;type:blob"`
}

func (DBEvent) TableName() string { return "events" }

// DBOracleEntry optionally persists oracle cache entries across
// process restarts; the in-process cache (oracle.Reader) does not
// require this for correctness — §4.F only guarantees determinism
// within one transaction/process.
type DBOracleEntry struct {
	URL     string `gorm:"column:url;primaryKey;size:512"`
	Content []byte `gorm:"column:content;type:blob"`
}

func (DBOracleEntry) TableName() string { return "oracle_entries" }

// Store is a GORM/SQLite-backed RootStore.
type Store struct {
	db *gorm.DB
}

func init() {
	context.Register(context.DBStoreType, func(params map[string]any) (changeset.RootStore, error) {
		path := defaultDBPath
		if p, ok := params["db_path"].(string); ok && p != "" {
			path = p
		}
		return Open(path)
	})
}

// Open opens (and migrates) a SQLite database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("db: create directory: %w", err)
		}
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	if err := gdb.AutoMigrate(&DBEntry{}, &DBEvent{}, &DBOracleEntry{}); err != nil {
		return nil, fmt.Errorf("db: migrate: %w", err)
	}
	return &Store{db: gdb}, nil
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	var row DBEntry
	result := s.db.Where("entry_key = ?", key).First(&row)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if result.Error != nil {
		return nil, false, fmt.Errorf("db: get %q: %w", key, result.Error)
	}
	return row.Value, true, nil
}

func (s *Store) Set(key string, value []byte) error {
	row := DBEntry{Key: key, Value: value}
	result := s.db.Save(&row)
	if result.Error != nil {
		return fmt.Errorf("db: set %q: %w", key, result.Error)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	result := s.db.Where("entry_key = ?", key).Delete(&DBEntry{})
	if result.Error != nil {
		return fmt.Errorf("db: delete %q: %w", key, result.Error)
	}
	return nil
}

// AppendEvent persists a single event row, used by eventlog consumers
// that want a durable audit trail in addition to the in-transaction
// Log (component G is exclusive-per-Runtime in memory; this is an
// additive durability layer).
func (s *Store) AppendEvent(blockHeight uint64, txHash, contract string, kind uint8, address string, data []byte) error {
	row := DBEvent{
		BlockHeight: blockHeight,
		TxHash:      txHash,
		Contract:    contract,
		Kind:        kind,
		Address:     address,
		Data:        data,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("db: append event: %w", err)
	}
	return nil
}

// CacheOracleEntry persists one oracle cache entry for durability
// across process restarts.
func (s *Store) CacheOracleEntry(url string, content []byte) error {
	row := DBOracleEntry{URL: url, Content: content}
	if err := s.db.Save(&row).Error; err != nil {
		return fmt.Errorf("db: cache oracle entry: %w", err)
	}
	return nil
}

// LoadOracleEntry reads a previously persisted oracle cache entry.
func (s *Store) LoadOracleEntry(url string) ([]byte, bool, error) {
	var row DBOracleEntry
	result := s.db.Where("url = ?", url).First(&row)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if result.Error != nil {
		return nil, false, fmt.Errorf("db: load oracle entry: %w", result.Error)
	}
	return row.Content, true, nil
}
