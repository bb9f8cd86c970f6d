// Package store keeps each parent's documents: JSON values under string keys,
// the way the web client kept them in local storage. Reads of entity keys
// that were never written seed sample data and persist it.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/digiplay/digiplay-server/internal/models"
	"github.com/digiplay/digiplay-server/internal/repository"
	"github.com/digiplay/digiplay-server/internal/utils"
)

var (
	// ErrCorruptDocument wraps stored values that are not valid for their key
	ErrCorruptDocument = errors.New("corrupt document")
	// ErrNotFound is returned for missing children, tasks and raw keys
	ErrNotFound = errors.New("not found")
	// ErrInsufficientBalance is returned when a parent wallet cannot cover a transfer
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidKey is returned for raw keys outside the allowed alphabet
	ErrInvalidKey = errors.New("invalid document key")
	// ErrValidation is returned for rejected input values
	ErrValidation = errors.New("validation failed")
)

// Store is the document store of all parents
type Store struct {
	repo   repository.Repository
	seed   *Seeder
	logger *utils.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a store on repo
func New(repo repository.Repository, seeder *Seeder, logger *utils.Logger) *Store {
	if seeder == nil {
		seeder = NewSeeder(nil, nil)
	}
	if logger == nil {
		logger = utils.NopLogger()
	}
	return &Store{
		repo:   repo,
		seed:   seeder,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lock serialises read-modify-write sequences of one owner and returns the
// unlock function.
func (s *Store) lock(ownerID string) func() {
	s.mu.Lock()
	l, ok := s.locks[ownerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[ownerID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Store) nowMillis() int64 {
	return s.seed.Now().UnixMilli()
}

// load reads and decodes key into out, upgrading old schema versions in
// place. It reports false when the key has never been written.
func (s *Store) load(ctx context.Context, ownerID, key string, out interface{}) (bool, error) {
	doc, err := s.repo.GetDocument(ctx, ownerID, key)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}

	raw, version, migrated, err := migrate(key, doc.SchemaVersion, []byte(doc.Value))
	if err != nil {
		return false, errors.Wrap(ErrCorruptDocument, err.Error())
	}

	if err := decode(raw, out); err != nil {
		return false, errors.Wrapf(ErrCorruptDocument, "%s: %v", key, err)
	}

	if migrated {
		doc.Value = string(raw)
		doc.SchemaVersion = version
		if err := s.repo.PutDocument(ctx, doc); err != nil {
			return false, err
		}
		DocumentsMigrated.WithLabelValues(family(key)).Inc()
		s.logger.Info("document migrated", "owner", ownerID, "key", key, "version", version)
	}

	return true, nil
}

func (s *Store) document(ownerID, key string, v interface{}) (*models.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", key)
	}
	return &models.Document{
		OwnerID:       ownerID,
		Key:           key,
		Value:         string(raw),
		SchemaVersion: currentVersion(key),
	}, nil
}

// save writes v under key at the current schema version
func (s *Store) save(ctx context.Context, ownerID, key string, v interface{}) error {
	doc, err := s.document(ownerID, key, v)
	if err != nil {
		return err
	}
	return s.repo.PutDocument(ctx, doc)
}

// saveAll writes several values in one transaction
func (s *Store) saveAll(ctx context.Context, ownerID string, values map[string]interface{}) error {
	docs := make([]*models.Document, 0, len(values))
	for key, v := range values {
		doc, err := s.document(ownerID, key, v)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	return s.repo.PutDocuments(ctx, docs)
}

// loadOrSeed returns the stored value of key, or persists and returns
// seed(). When two callers seed at once the first insert wins and the loser
// returns the stored value.
func loadOrSeed[T any](ctx context.Context, s *Store, ownerID, key string, seed func() T) (T, error) {
	var v T
	found, err := s.load(ctx, ownerID, key, &v)
	if err != nil || found {
		return v, err
	}

	fresh := seed()
	doc, err := s.document(ownerID, key, fresh)
	if err != nil {
		return v, err
	}
	inserted, err := s.repo.InsertDocumentIfAbsent(ctx, doc)
	if err != nil {
		return v, err
	}
	if inserted {
		DocumentsSeeded.WithLabelValues(family(key)).Inc()
		s.logger.Debug("document seeded", "owner", ownerID, "key", key)
		return fresh, nil
	}

	var stored T
	if _, err := s.load(ctx, ownerID, key, &stored); err != nil {
		return v, err
	}
	return stored, nil
}

// loadOrEmpty returns the stored value of key or its zero value
func loadOrEmpty[T any](ctx context.Context, s *Store, ownerID, key string) (T, error) {
	var v T
	_, err := s.load(ctx, ownerID, key, &v)
	return v, err
}
