package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

// OpenPostgres opens and pings a PostgreSQL pool through the pgx driver.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Postgres is a Repository keeping each record as a JSON document in its
// own table.
type Postgres[T Record[T]] struct {
	db    *sql.DB
	table string
}

// NewPostgres returns a repository over table. The name is interpolated into
// SQL and so must be a plain lower-case identifier.
func NewPostgres[T Record[T]](db *sql.DB, table string) (*Postgres[T], error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Postgres[T]{db: db, table: table}, nil
}

// EnsureSchema creates the table if it does not exist.
func (p *Postgres[T]) EnsureSchema(ctx context.Context) error {
	q := `create table if not exists ` + p.table + ` (
	id         text primary key,
	doc        jsonb not null,
	created_at timestamptz not null default now(),
	updated_at timestamptz not null default now()
)`
	_, err := p.db.ExecContext(ctx, q)
	return err
}

// Get implements Repository.
func (p *Postgres[T]) Get(ctx context.Context, id string) (T, error) {
	var (
		zero T
		js   []byte
	)
	q := `select doc from ` + p.table + ` where id=$1`
	if err := p.db.QueryRowContext(ctx, q, id).Scan(&js); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	var rec T
	if err := json.Unmarshal(js, &rec); err != nil {
		return zero, fmt.Errorf("decoding %s %s: %w", p.table, id, err)
	}
	return rec, nil
}

// Put implements Repository.
func (p *Postgres[T]) Put(ctx context.Context, rec T) error {
	js, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	q := `
insert into ` + p.table + `(id, doc)
values ($1, $2)
on conflict (id)
do update set doc=excluded.doc, updated_at=now()`
	_, err = p.db.ExecContext(ctx, q, rec.RecordID(), js)
	return err
}

// Delete implements Repository.
func (p *Postgres[T]) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `delete from `+p.table+` where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Repository.
func (p *Postgres[T]) List(ctx context.Context) ([]T, error) {
	rows, err := p.db.QueryContext(ctx, `select doc from `+p.table+` order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var js []byte
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var rec T
		if err := json.Unmarshal(js, &rec); err != nil {
			return nil, fmt.Errorf("decoding %s row: %w", p.table, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
