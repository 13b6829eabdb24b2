// Package history persists calculator operations in a BadgerDB store.
//
// Entries are keyed by insertion time so a prefix scan returns them in
// chronological order. The store is owned by the caller; nothing in this
// package keeps global state.
package history

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const entryPrefix = "entry/"

// Entry is one recorded operation.
type Entry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Operation string            `json:"operation"`
	Inputs    map[string]string `json:"inputs"`
	Result    string            `json:"result"`
}

// Options configures Open. Dir is required unless InMemory is set.
type Options struct {
	Dir      string
	InMemory bool
	Logger   *slog.Logger
}

// Store is a BadgerDB-backed history. It is safe for concurrent use.
type Store struct {
	db  *badger.DB
	seq atomic.Uint64
	now func() time.Time
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens (or creates) the history database.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("history: directory is required for a persistent store")
	}

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Dir, 0750); err != nil {
			return nil, fmt.Errorf("history: create directory %s: %w", opts.Dir, err)
		}
		bopts = badger.DefaultOptions(opts.Dir)
	}
	bopts = bopts.WithNumVersionsToKeep(1)
	if opts.Logger != nil {
		bopts = bopts.WithLogger(&badgerLogger{logger: opts.Logger})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records one operation and returns the stored entry.
func (s *Store) Add(ctx context.Context, operation string, inputs map[string]string, result string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:        uuid.New().String(),
		Timestamp: s.now().UTC(),
		Operation: operation,
		Inputs:    inputs,
		Result:    result,
	}
	if e.Inputs == nil {
		e.Inputs = map[string]string{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("history: encode entry: %w", err)
	}
	key := fmt.Sprintf("%s%020d/%010d/%s", entryPrefix, e.Timestamp.UnixNano(), s.seq.Add(1), e.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("history: write entry: %w", err)
	}
	return e, nil
}

// List returns every entry, oldest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(entryPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return fmt.Errorf("history: decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix([]byte(entryPrefix)); err != nil {
		return fmt.Errorf("history: clear: %w", err)
	}
	return nil
}

// ExportJSON writes entries as an indented JSON array.
func ExportJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// ExportCSV writes entries with the columns timestamp, operation, inputs and
// result. Inputs are JSON-encoded into a single cell.
func ExportCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "operation", "inputs", "result"}); err != nil {
		return err
	}
	for _, e := range entries {
		inputs, err := json.Marshal(e.Inputs)
		if err != nil {
			return err
		}
		row := []string{e.Timestamp.Format(time.RFC3339Nano), e.Operation, string(inputs), e.Result}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
