package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Capstone-E1/aquahealth_backend/internal/apperrors"
	"github.com/Capstone-E1/aquahealth_backend/internal/store"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// DatabaseStore implements persistent document storage using PostgreSQL JSONB rows
type DatabaseStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(db *sql.DB, logger *zap.Logger) *DatabaseStore {
	return &DatabaseStore{db: db, logger: logger}
}

// Collection returns a handle scoped to one collection name
func (s *DatabaseStore) Collection(name string) store.Collection {
	return &collection{db: s.db, name: name, logger: s.logger}
}

// Ping checks the database connection
func (s *DatabaseStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool
func (s *DatabaseStore) Close() error {
	return s.db.Close()
}

type collection struct {
	db     *sql.DB
	name   string
	logger *zap.Logger
}

func (c *collection) Insert(ctx context.Context, id string, doc store.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := `INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::jsonb)`
	if _, err := c.db.ExecContext(ctx, query, c.name, id, string(body)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return store.ErrConflict
		}
		return &apperrors.StoreError{Op: "insert", Err: err}
	}
	return nil
}

func (c *collection) Get(ctx context.Context, id string) (store.Document, error) {
	query := `SELECT body FROM documents WHERE collection = $1 AND id = $2`

	var body []byte
	err := c.db.QueryRowContext(ctx, query, c.name, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, &apperrors.StoreError{Op: "get", Err: err}
	}
	return decodeBody(body)
}

func (c *collection) Replace(ctx context.Context, id string, doc store.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := `UPDATE documents SET body = $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`
	return c.execOne(ctx, "replace", query, c.name, id, string(body))
}

func (c *collection) Patch(ctx context.Context, id string, fields store.Document) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	// jsonb || merges top-level keys, the right side wins
	query := `UPDATE documents SET body = body || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`
	return c.execOne(ctx, "patch", query, c.name, id, string(body))
}

func (c *collection) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	return c.execOne(ctx, "delete", query, c.name, id)
}

func (c *collection) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return &apperrors.StoreError{Op: op, Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &apperrors.StoreError{Op: op, Err: err}
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *collection) Find(ctx context.Context, q store.Query) ([]store.Document, error) {
	query, args := buildFindQuery(c.name, q)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &apperrors.StoreError{Op: "find", Err: err}
	}
	defer rows.Close()

	docs := make([]store.Document, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			c.logger.Error("Error scanning document row", zap.String("collection", c.name), zap.Error(err))
			continue
		}
		doc, err := decodeBody(body)
		if err != nil {
			c.logger.Error("Error decoding document", zap.String("collection", c.name), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperrors.StoreError{Op: "find", Err: err}
	}
	return docs, nil
}

func (c *collection) Count(ctx context.Context, filters ...store.Filter) (int, error) {
	where, args := buildWhere(c.name, filters)
	query := "SELECT COUNT(*) FROM documents WHERE " + where

	var n int
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, &apperrors.StoreError{Op: "count", Err: err}
	}
	return n, nil
}

func decodeBody(body []byte) (store.Document, error) {
	var doc store.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

var operators = map[store.Op]string{
	store.OpEq:  "=",
	store.OpGt:  ">",
	store.OpGte: ">=",
	store.OpLt:  "<",
	store.OpLte: "<=",
}

// fieldExpr reads a JSON field as the SQL type of kind. Field names are bound as
// parameters, never interpolated.
func fieldExpr(placeholder string, kind store.Kind) string {
	switch kind {
	case store.KindNumber:
		return "(body->>" + placeholder + ")::numeric"
	case store.KindTime:
		return "(body->>" + placeholder + ")::timestamptz"
	case store.KindBool:
		return "(body->>" + placeholder + ")::boolean"
	default:
		// byte-order comparison keeps prefix ranges identical to the in-memory engine
		return "(body->>" + placeholder + `) COLLATE "C"`
	}
}

func buildWhere(collection string, filters []store.Filter) (string, []any) {
	args := []any{collection}
	clauses := []string{"collection = $1"}

	for _, f := range filters {
		op, ok := operators[f.Op]
		if !ok {
			op = "="
		}
		kind := store.KindOf(f.Value)
		value := f.Value
		if kind == store.KindNumber {
			value, _ = store.ToFloat(f.Value)
		}

		args = append(args, f.Field)
		fieldPH := "$" + strconv.Itoa(len(args))
		args = append(args, value)
		valuePH := "$" + strconv.Itoa(len(args))

		clauses = append(clauses, fieldExpr(fieldPH, kind)+" "+op+" "+valuePH)
	}
	return strings.Join(clauses, " AND "), args
}

func buildFindQuery(collection string, q store.Query) (string, []any) {
	where, args := buildWhere(collection, q.Filters)

	var sb strings.Builder
	sb.WriteString("SELECT body FROM documents WHERE ")
	sb.WriteString(where)
	sb.WriteString(" ORDER BY ")

	for _, o := range q.Order {
		args = append(args, o.Field)
		sb.WriteString(fieldExpr("$"+strconv.Itoa(len(args)), o.Kind))
		// absent fields sort lowest, as in the in-memory engine
		if o.Desc {
			sb.WriteString(" DESC NULLS LAST, ")
		} else {
			sb.WriteString(" ASC NULLS FIRST, ")
		}
	}
	sb.WriteString("seq ASC")

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	return sb.String(), args
}
