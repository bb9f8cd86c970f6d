package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/digiplay/digiplay-server/internal/models"
)

const upsertDocumentQuery = `
	INSERT INTO documents (owner_id, doc_key, value, schema_version, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (owner_id, doc_key) DO UPDATE SET
		value = excluded.value,
		schema_version = excluded.schema_version,
		updated_at = excluded.updated_at
`

// GetDocument returns nil, nil when the key has never been written
func (r *SQLRepository) GetDocument(ctx context.Context, ownerID, key string) (*models.Document, error) {
	var doc models.Document
	found, err := r.get(ctx, &doc,
		`SELECT * FROM documents WHERE owner_id = ? AND doc_key = ?`, ownerID, key)
	if err != nil {
		return nil, errors.Wrapf(err, "select document %s", key)
	}
	if !found {
		return nil, nil
	}
	return &doc, nil
}

// PutDocument writes doc, replacing any stored value (last writer wins)
func (r *SQLRepository) PutDocument(ctx context.Context, doc *models.Document) error {
	stampDocument(doc)
	_, err := r.exec(ctx, upsertDocumentQuery,
		doc.OwnerID, doc.Key, doc.Value, doc.SchemaVersion, doc.CreatedAt, doc.UpdatedAt)
	return errors.Wrapf(err, "put document %s", doc.Key)
}

// PutDocuments writes all docs atomically
func (r *SQLRepository) PutDocuments(ctx context.Context, docs []*models.Document) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(upsertDocumentQuery)
		for _, doc := range docs {
			stampDocument(doc)
			_, err := tx.ExecContext(ctx, query,
				doc.OwnerID, doc.Key, doc.Value, doc.SchemaVersion, doc.CreatedAt, doc.UpdatedAt)
			if err != nil {
				return errors.Wrapf(err, "put document %s", doc.Key)
			}
		}
		return nil
	})
}

// InsertDocumentIfAbsent writes doc only when the key is free and reports
// whether it did. Concurrent seeders therefore agree on the first value.
func (r *SQLRepository) InsertDocumentIfAbsent(ctx context.Context, doc *models.Document) (bool, error) {
	query := `
		INSERT INTO documents (owner_id, doc_key, value, schema_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, doc_key) DO NOTHING
	`

	stampDocument(doc)
	res, err := r.exec(ctx, query,
		doc.OwnerID, doc.Key, doc.Value, doc.SchemaVersion, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return false, errors.Wrapf(err, "insert document %s", doc.Key)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n == 1, nil
}

func (r *SQLRepository) DeleteDocument(ctx context.Context, ownerID, key string) error {
	_, err := r.exec(ctx, `DELETE FROM documents WHERE owner_id = ? AND doc_key = ?`, ownerID, key)
	return errors.Wrapf(err, "delete document %s", key)
}

// DeleteDocuments removes several keys of one owner
func (r *SQLRepository) DeleteDocuments(ctx context.Context, ownerID string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM documents WHERE owner_id = ? AND doc_key IN (?)`, ownerID, keys)
	if err != nil {
		return errors.Wrap(err, "expand delete query")
	}

	_, err = r.exec(ctx, query, args...)
	return errors.Wrap(err, "delete documents")
}

// ListDocumentKeys returns the owner's keys in lexical order
func (r *SQLRepository) ListDocumentKeys(ctx context.Context, ownerID string) ([]string, error) {
	keys := []string{}
	err := r.db.SelectContext(ctx, &keys,
		r.db.Rebind(`SELECT doc_key FROM documents WHERE owner_id = ? ORDER BY doc_key`), ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "list document keys")
	}
	return keys, nil
}

func stampDocument(doc *models.Document) {
	now := time.Now().UnixMilli()
	if doc.CreatedAt == 0 {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.SchemaVersion == 0 {
		doc.SchemaVersion = 1
	}
}
