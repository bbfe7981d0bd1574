package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/glizzus/jukebox/internal/media"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

func RecordToRowParams(r Record) []any {
	return []any{
		r.Kind.String(),
		r.UID,
		r.Title,
		r.Channel,
		r.UserID,
		r.Volume,
		r.CreatedAt,
		r.MessageID,
	}
}

const selectColumns = `kind, uid, title, channel, user_id, volume, created_at, message_id`

func scanRecord(row pgx.Row) (Record, error) {
	var (
		r      Record
		kind   string
		volume int16
	)
	if err := row.Scan(&kind, &r.UID, &r.Title, &r.Channel, &r.UserID, &volume, &r.CreatedAt, &r.MessageID); err != nil {
		return Record{}, err
	}
	k, err := media.ParseKind(kind)
	if err != nil {
		return Record{}, err
	}
	r.Kind = k
	r.Volume = int(volume)
	return r, nil
}

func (s *PostgresStore) FindOne(ctx context.Context, kind media.Kind, uid string) (*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM history WHERE kind = $1 AND uid = $2`

	r, err := scanRecord(s.db.QueryRow(ctx, query, kind.String(), uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find history record: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) AddOrUpdate(ctx context.Context, record Record) error {
	const query = `
	INSERT INTO history (kind, uid, title, channel, user_id, volume, created_at, message_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (kind, uid) DO UPDATE SET
		title = EXCLUDED.title,
		channel = EXCLUDED.channel,
		user_id = EXCLUDED.user_id,
		volume = EXCLUDED.volume,
		created_at = EXCLUDED.created_at,
		message_id = EXCLUDED.message_id
	`

	if _, err := s.db.Exec(ctx, query, RecordToRowParams(record)...); err != nil {
		return fmt.Errorf("failed to upsert history record: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateVolume(ctx context.Context, kind media.Kind, uid string, volume int) error {
	const query = `UPDATE history SET volume = $3 WHERE kind = $1 AND uid = $2`

	if _, err := s.db.Exec(ctx, query, kind.String(), uid, volume); err != nil {
		return fmt.Errorf("failed to update history volume: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query := `SELECT ` + selectColumns + ` FROM history ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
