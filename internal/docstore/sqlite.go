package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mlaurel/hearthledger/internal/apperrors"
)

// SQLite implements Store on a single documents table keyed by full path,
// with the field set stored as a JSON column.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// querier abstracts *sql.DB and *sql.Tx so the same operations serve both.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// storeErr wraps a driver failure as a transient store error. The message is
// what the caller may show; the cause stays attached for logs.
func storeErr(op string, err error) error {
	return apperrors.Wrap(apperrors.CodeStoreUnavailable, "operation failed, please retry", fmt.Errorf("%s: %w", op, err))
}

func getDoc(ctx context.Context, q querier, path string) (*Document, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT fields FROM documents WHERE path = ?`, path).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get document", err)
	}

	var fields Fields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, storeErr("decode document", err)
	}
	return &Document{Path: path, Fields: fields}, nil
}

func setDoc(ctx context.Context, q querier, path string, fields Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return storeErr("encode document", err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO documents (path, fields) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET fields = excluded.fields, updated_at = datetime('now')`,
		path, string(raw),
	)
	if err != nil {
		return storeErr("set document", err)
	}
	return nil
}

func updateDoc(ctx context.Context, q querier, path string, partial Fields) error {
	doc, err := getDoc(ctx, q, path)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("update %s: %w", path, ErrNoDocument)
	}
	for k, v := range partial {
		doc.Fields[k] = v
	}
	return setDoc(ctx, q, path, doc.Fields)
}

func queryDocs(ctx context.Context, q querier, collectionPath string, filter Filter) ([]Document, error) {
	// Direct children only: one path segment below the collection.
	rows, err := q.QueryContext(ctx,
		`SELECT path, fields FROM documents
		 WHERE path LIKE ? AND path NOT LIKE ?
		   AND EXISTS (
		     SELECT 1 FROM json_each(documents.fields, '$.' || ?) AS elem
		     WHERE elem.value = ?
		   )
		 ORDER BY path`,
		collectionPath+"/%", collectionPath+"/%/%", filter.Field, filter.Contains,
	)
	if err != nil {
		return nil, storeErr("query documents", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, storeErr("scan document", err)
		}
		var fields Fields
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, storeErr("decode document", err)
		}
		docs = append(docs, Document{Path: path, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate documents", err)
	}
	return docs, nil
}

func (s *SQLite) Get(ctx context.Context, path string) (*Document, error) {
	return getDoc(ctx, s.db, path)
}

func (s *SQLite) Set(ctx context.Context, path string, fields Fields) error {
	return setDoc(ctx, s.db, path, fields)
}

func (s *SQLite) Update(ctx context.Context, path string, partial Fields) error {
	return updateDoc(ctx, s.db, path, partial)
}

func (s *SQLite) Query(ctx context.Context, collectionPath string, filter Filter) ([]Document, error) {
	return queryDocs(ctx, s.db, collectionPath, filter)
}

// RunTransaction runs fn inside a SQLite transaction. A returned error rolls
// everything back.
func (s *SQLite) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&sqliteTx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Get(ctx context.Context, path string) (*Document, error) {
	return getDoc(ctx, t.tx, path)
}

func (t *sqliteTx) Set(ctx context.Context, path string, fields Fields) error {
	return setDoc(ctx, t.tx, path, fields)
}

func (t *sqliteTx) Update(ctx context.Context, path string, partial Fields) error {
	return updateDoc(ctx, t.tx, path, partial)
}
