package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	qb "github.com/riskibarqy/pitchwatch/internal/platform/querybuilder"
)

// PostgresStore keeps documents in a single jsonb table.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type documentRow struct {
	Kind      string          `db:"kind"`
	Key       string          `db:"key"`
	Data      json.RawMessage `db:"data"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (s *PostgresStore) Get(ctx context.Context, kind, key string, out any) (bool, error) {
	query, args, err := qb.Select("kind", "key", "data", "updated_at").
		From("documents").
		Where(qb.Eq("kind", kind), qb.Eq("key", key)).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build get document query: %w", err)
	}

	var row documentRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get document %s/%s: %w", kind, key, err)
	}
	if out == nil {
		return true, nil
	}
	if err := sonic.Unmarshal(row.Data, out); err != nil {
		return false, fmt.Errorf("decode document %s/%s: %w", kind, key, err)
	}
	return true, nil
}

func (s *PostgresStore) Put(ctx context.Context, kind, key string, doc any) error {
	data, err := sonic.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", kind, key, err)
	}

	insertModel := documentRow{
		Kind:      kind,
		Key:       key,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	query, args, err := qb.InsertModel("documents", insertModel, `ON CONFLICT (kind, key)
DO UPDATE SET
    data = EXCLUDED.data,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build put document query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put document %s/%s: %w", kind, key, err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, kind string, filter map[string]any) ([]Document, error) {
	conditions := []qb.Condition{qb.Eq("kind", kind)}
	if len(filter) > 0 {
		filterJSON, err := sonic.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("encode document filter: %w", err)
		}
		conditions = append(conditions, qb.Expr("data @> ?::jsonb", string(filterJSON)))
	}

	query, args, err := qb.Select("kind", "key", "data", "updated_at").
		From("documents").
		Where(conditions...).
		OrderBy("key ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query documents query: %w", err)
	}

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query documents kind=%s: %w", kind, err)
	}

	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, Document{
			Kind:      row.Kind,
			Key:       row.Key,
			Data:      row.Data,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

// IncrementCounter relies on the database for atomicity: the upsert adds
// one to data->used in a single statement, so concurrent callers each
// observe a distinct post-increment value.
func (s *PostgresStore) IncrementCounter(ctx context.Context, kind, key string, seed any) (int, error) {
	data, err := sonic.Marshal(seed)
	if err != nil {
		return 0, fmt.Errorf("encode counter seed %s/%s: %w", kind, key, err)
	}

	insertModel := documentRow{
		Kind:      kind,
		Key:       key,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	query, args, err := qb.InsertModel("documents", insertModel, `ON CONFLICT (kind, key)
DO UPDATE SET
    data = jsonb_set(documents.data, '{used}', to_jsonb(COALESCE((documents.data->>'used')::int, 0) + 1)),
    updated_at = EXCLUDED.updated_at
RETURNING (data->>'used')::int`)
	if err != nil {
		return 0, fmt.Errorf("build increment counter query: %w", err)
	}

	var used int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&used); err != nil {
		return 0, fmt.Errorf("increment counter %s/%s: %w", kind, key, err)
	}
	return used, nil
}
