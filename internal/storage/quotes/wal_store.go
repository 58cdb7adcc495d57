// Package quotes persists resolved price quotes in a WAL so a later run can
// warm its oracle cache instead of re-downloading history.
package quotes

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"cession/internal/services/oracle"
)

const (
	quoteSegmentLimit = 1000
	quoteMaxSegments  = 100
	quoteKeyPrefix    = "quote_"
)

// WALStore is an append-only quote journal backed by gowal. It implements
// oracle.Journal. Quotes are immutable facts, so replaying the log into a
// fresh cache is always safe.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// NewWALStore opens (or creates) the quote WAL under dir.
func NewWALStore(dir string) (*WALStore, error) {
	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "quotes_",
		SegmentThreshold: quoteSegmentLimit,
		MaxSegments:      quoteMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init quote WAL")
	}
	return &WALStore{wal: wal}, nil
}

// Append journals one resolved quote.
func (s *WALStore) Append(q oracle.Quote) error {
	if s == nil || s.wal == nil {
		return errors.New("quote store is not initialized")
	}
	if q.Asset == "" {
		return errors.New("quote asset is required")
	}

	payload, err := json.Marshal(q)
	if err != nil {
		return errors.Wrap(err, "marshal quote")
	}

	key := fmt.Sprintf("%s%s_%d", quoteKeyPrefix, q.Asset, q.Time.UnixNano())

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wal.Write(s.wal.CurrentIndex()+1, key, payload)
}

// All replays every journaled quote, in write order.
func (s *WALStore) All() ([]oracle.Quote, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("quote store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []oracle.Quote
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, quoteKeyPrefix) {
			continue
		}
		var q oracle.Quote
		if err := json.Unmarshal(msg.Value, &q); err != nil {
			return nil, errors.Wrap(err, "decode quote")
		}
		out = append(out, q)
	}
	return out, nil
}

// Close releases the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return nil
	}
	return s.wal.Close()
}
