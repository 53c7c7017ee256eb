package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
)

// ErrNotFound reports that no snapshot has been saved for a dataset.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one dataset payload as last fetched from its source.
type Snapshot struct {
	FetchedAt time.Time
	SourceURL string
	Payload   []byte
}

// Store persists the last good copy of each source file so a refresh can fall
// back to it when the upstream portal is unreachable.
type Store struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open creates or opens a snapshot store rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	return &Store{db: db, encoder: encoder, decoder: decoder}, nil
}

// envelope is the stored form; the CSV payload compresses well under zstd.
type envelope struct {
	FetchedAt  time.Time `json:"fetched_at"`
	SourceURL  string    `json:"source_url"`
	Compressed []byte    `json:"compressed"`
}

// Save stores snap as the current snapshot for dataset, replacing any
// previous one.
func (s *Store) Save(dataset string, snap Snapshot) error {
	env := envelope{
		FetchedAt:  snap.FetchedAt.UTC(),
		SourceURL:  snap.SourceURL,
		Compressed: s.encoder.EncodeAll(snap.Payload, make([]byte, 0, len(snap.Payload)/4)),
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(dataset), value)
	})
	if err != nil {
		return fmt.Errorf("save snapshot for %s: %w", dataset, err)
	}
	return nil
}

// Load returns the stored snapshot for dataset, or ErrNotFound.
func (s *Store) Load(dataset string) (Snapshot, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(dataset))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = append([]byte(nil), val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot for %s: %w", dataset, err)
	}

	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	payload, err := s.decoder.DecodeAll(env.Compressed, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decompress snapshot: %w", err)
	}

	return Snapshot{
		FetchedAt: env.FetchedAt,
		SourceURL: env.SourceURL,
		Payload:   payload,
	}, nil
}

// Close releases the store. Safe to call once.
func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

func key(dataset string) []byte {
	return []byte("snapshot/" + dataset)
}
