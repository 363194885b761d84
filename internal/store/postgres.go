package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/park285/guesswho/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	display_name TEXT,
	description  TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS profiles_user_id_idx ON profiles (user_id);

CREATE TABLE IF NOT EXISTS game_results (
	id               TEXT PRIMARY KEY,
	guesser_id       TEXT NOT NULL,
	assigned_user_id TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS game_results_guesser_idx ON game_results (guesser_id);
CREATE INDEX IF NOT EXISTS game_results_assigned_idx ON game_results (assigned_user_id);`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Postgres implements the profile directory and result log on PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (r *Postgres) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// EnsureSchema creates tables and indexes when missing.
func (r *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *Postgres) query(ctx context.Context, q sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return r.db.QueryContext(ctx, query, args...)
}

func (r *Postgres) row(ctx context.Context, q sq.Sqlizer) (*sql.Row, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return r.db.QueryRowContext(ctx, query, args...), nil
}

func profileColumns() []string {
	return []string{"id", "user_id", "COALESCE(display_name, '')", "COALESCE(description, '')", "created_at"}
}

func scanProfiles(rows *sql.Rows) ([]*domain.Profile, error) {
	defer rows.Close()
	var out []*domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *Postgres) Create(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	if p == nil {
		return nil, fmt.Errorf("nil profile")
	}
	cp := *p
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	row, err := r.row(ctx, psql.Insert("profiles").
		Columns("id", "user_id", "display_name", "description").
		Values(cp.ID, cp.UserID, cp.DisplayName, cp.Description).
		Suffix("RETURNING created_at"))
	if err != nil {
		return nil, err
	}
	if err := row.Scan(&cp.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return &cp, nil
}

func (r *Postgres) ListExcluding(ctx context.Context, userID string) ([]*domain.Profile, error) {
	rows, err := r.query(ctx, psql.Select(profileColumns()...).From("profiles").
		Where(sq.NotEq{"user_id": userID}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	return scanProfiles(rows)
}

func (r *Postgres) ListNamed(ctx context.Context) ([]*domain.Profile, error) {
	rows, err := r.query(ctx, psql.Select(profileColumns()...).From("profiles").
		Where(sq.And{sq.NotEq{"display_name": nil}, sq.NotEq{"display_name": ""}}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("select named profiles: %w", err)
	}
	return scanProfiles(rows)
}

// Get returns the most recently created profile owned by userID.
func (r *Postgres) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	rows, err := r.query(ctx, psql.Select(profileColumns()...).From("profiles").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1))
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	list, err := scanProfiles(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	return list[0], nil
}

func searchNamesQuery(query string, limit int) sq.SelectBuilder {
	b := psql.Select("display_name").From("profiles").
		Where(sq.And{sq.NotEq{"display_name": nil}, sq.NotEq{"display_name": ""}})
	if q := strings.TrimSpace(query); q != "" {
		b = b.Where(sq.ILike{"display_name": "%" + escapeLike(q) + "%"})
	}
	b = b.OrderBy("display_name")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return b
}

func (r *Postgres) SearchNames(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := r.query(ctx, searchNamesQuery(query, limit))
	if err != nil {
		return nil, fmt.Errorf("search names: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Postgres) Append(ctx context.Context, guesserID, assignedUserID string) (*domain.RoundResult, error) {
	res := domain.RoundResult{ID: uuid.NewString(), GuesserID: guesserID, AssignedUserID: assignedUserID}
	row, err := r.row(ctx, psql.Insert("game_results").
		Columns("id", "guesser_id", "assigned_user_id").
		Values(res.ID, guesserID, assignedUserID).
		Suffix("RETURNING created_at"))
	if err != nil {
		return nil, err
	}
	if err := row.Scan(&res.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert game result: %w", err)
	}
	return &res, nil
}

func (r *Postgres) All(ctx context.Context) ([]domain.RoundResult, error) {
	rows, err := r.query(ctx, psql.Select("id", "guesser_id", "assigned_user_id", "created_at").From("game_results"))
	if err != nil {
		return nil, fmt.Errorf("select game results: %w", err)
	}
	defer rows.Close()
	var out []domain.RoundResult
	for rows.Next() {
		var g domain.RoundResult
		if err := rows.Scan(&g.ID, &g.GuesserID, &g.AssignedUserID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game result: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func countQuery(field domain.ResultField, userID string) (sq.SelectBuilder, error) {
	if err := checkField(field); err != nil {
		return sq.SelectBuilder{}, err
	}
	return psql.Select("COUNT(*)").From("game_results").Where(sq.Eq{string(field): userID}), nil
}

func (r *Postgres) CountWhere(ctx context.Context, field domain.ResultField, userID string) (int, error) {
	q, err := countQuery(field, userID)
	if err != nil {
		return 0, err
	}
	row, err := r.row(ctx, q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("count game results: %w", err)
	}
	return n, nil
}

func (r *Postgres) AssignedBy(ctx context.Context, guesserID string) ([]string, error) {
	rows, err := r.query(ctx, psql.Select("assigned_user_id").From("game_results").Where(sq.Eq{"guesser_id": guesserID}))
	if err != nil {
		return nil, fmt.Errorf("select assignment history: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// escapeLike quotes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
