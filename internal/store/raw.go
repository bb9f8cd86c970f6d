package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// GetRaw returns the stored JSON of key without seeding
func (s *Store) GetRaw(ctx context.Context, ownerID, key string) (json.RawMessage, error) {
	if !ValidKey(key) {
		return nil, errors.Wrapf(ErrInvalidKey, "%q", key)
	}

	var raw json.RawMessage
	found, err := s.load(ctx, ownerID, key, &raw)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(ErrNotFound, "key %s", key)
	}
	return raw, nil
}

// PutRaw stores value under key, replacing what was there. Uploaded values
// are in the client's own format, so they are taken as schema version 1 and
// upgraded before saving.
func (s *Store) PutRaw(ctx context.Context, ownerID, key string, value json.RawMessage) error {
	if !ValidKey(key) {
		return errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	if !json.Valid(value) {
		return errors.Wrap(ErrValidation, "value is not valid JSON")
	}

	upgraded, version, migrated, err := migrate(key, 1, value)
	if err != nil {
		return errors.Wrapf(ErrValidation, "%s: %v", key, err)
	}
	if migrated {
		DocumentsMigrated.WithLabelValues(family(key)).Inc()
		s.logger.Debug("uploaded document migrated", "owner", ownerID, "key", key, "version", version)
	}
	return s.save(ctx, ownerID, key, json.RawMessage(upgraded))
}

func (s *Store) DeleteRaw(ctx context.Context, ownerID, key string) error {
	if !ValidKey(key) {
		return errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return s.repo.DeleteDocument(ctx, ownerID, key)
}

// Keys lists the owner's stored keys
func (s *Store) Keys(ctx context.Context, ownerID string) ([]string, error) {
	return s.repo.ListDocumentKeys(ctx, ownerID)
}
