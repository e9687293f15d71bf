package credstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"biovault/pkg/platform/tx"
)

// Postgres is a credential store backed by PostgreSQL via the pgx stdlib
// driver. A unique index on (kind, service, account) surfaces duplicate
// items; values are sealed at rest when a Sealer is supplied.
type Postgres struct {
	db        *sql.DB
	sealer    *Sealer
	authorize Authorizer
	logger    *slog.Logger
}

// PostgresOption customizes a Postgres store.
type PostgresOption func(*Postgres)

// WithPostgresAuthorizer installs the user-presence challenge for protected
// entries.
func WithPostgresAuthorizer(authorize Authorizer) PostgresOption {
	return func(p *Postgres) { p.authorize = authorize }
}

// WithPostgresSealer seals entry values at rest.
func WithPostgresSealer(sealer *Sealer) PostgresOption {
	return func(p *Postgres) { p.sealer = sealer }
}

// NewPostgres creates a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB, logger *slog.Logger, opts ...PostgresOption) *Postgres {
	p := &Postgres{db: db, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS credstore_entries (
	id               UUID PRIMARY KEY,
	kind             TEXT NOT NULL,
	service          TEXT NOT NULL,
	account          TEXT NOT NULL,
	label            TEXT NOT NULL DEFAULT '',
	access_group     TEXT NOT NULL DEFAULT '',
	value            BYTEA NOT NULL,
	protected        BOOLEAN NOT NULL DEFAULT FALSE,
	accessibility    INT NOT NULL DEFAULT 0,
	require_presence BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (kind, service, account)
)`

// EnsureSchema creates the entries table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, pgSchema)
	return err
}

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

func (p *Postgres) Add(ctx context.Context, attrs Attributes) Status {
	if attrs.Kind == "" || attrs.Service == "" || attrs.Account == "" || attrs.Value == nil {
		return StatusBadParameter
	}

	value := bytes.Clone(attrs.Value)
	if p.sealer != nil {
		sealed, err := p.sealer.Seal(attrs.Service, attrs.Account, value)
		if err != nil {
			p.logger.Error("seal entry value", "service", attrs.Service, "error", err)
			return StatusOther
		}
		value = sealed
	}

	protected := attrs.AccessControl != nil
	accessibility := 0
	requirePresence := false
	if protected {
		accessibility = int(attrs.AccessControl.Accessibility)
		requirePresence = attrs.AccessControl.RequireUserPresence
	}

	_, err := tx.QuerierFrom(ctx, p.db).ExecContext(ctx, `
		INSERT INTO credstore_entries
			(id, kind, service, account, label, access_group, value, protected, accessibility, require_presence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.NewString(), attrs.Kind, attrs.Service, attrs.Account,
		attrs.Label, attrs.AccessGroup, value, protected, accessibility, requirePresence,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return StatusDuplicateItem
		}
		p.logger.Error("add entry", "service", attrs.Service, "error", err)
		return StatusOther
	}
	return StatusSuccess
}

func (p *Postgres) Update(ctx context.Context, q Query, change Change) Status {
	if q.Kind == "" || q.Service == "" || q.Account == "" || change.Value == nil {
		return StatusBadParameter
	}

	// The fetch, the challenge, and the write share one transaction so the
	// entry cannot change between steps.
	st := StatusSuccess
	err := tx.RunInTx(ctx, p.db, func(ctx context.Context) error {
		row, fst := p.fetch(ctx, q)
		if fst != StatusSuccess {
			st = fst
			return nil
		}
		if cst := p.challenge(ctx, row, q); cst != StatusSuccess {
			st = cst
			return nil
		}

		value := bytes.Clone(change.Value)
		if p.sealer != nil {
			sealed, err := p.sealer.Seal(q.Service, q.Account, value)
			if err != nil {
				p.logger.Error("seal entry value", "service", q.Service, "error", err)
				st = StatusOther
				return nil
			}
			value = sealed
		}

		result, err := tx.QuerierFrom(ctx, p.db).ExecContext(ctx, `
			UPDATE credstore_entries SET value = $1
			WHERE kind = $2 AND service = $3 AND account = $4`,
			value, q.Kind, q.Service, q.Account,
		)
		if err != nil {
			return err
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			st = StatusNotFound
		}
		return nil
	})
	if err != nil {
		p.logger.Error("update entry", "service", q.Service, "error", err)
		return StatusOther
	}
	return st
}

func (p *Postgres) Delete(ctx context.Context, q Query) Status {
	if q.Kind == "" || q.Service == "" || q.Account == "" {
		return StatusBadParameter
	}

	result, err := tx.QuerierFrom(ctx, p.db).ExecContext(ctx, `
		DELETE FROM credstore_entries
		WHERE kind = $1 AND service = $2 AND account = $3`,
		q.Kind, q.Service, q.Account,
	)
	if err != nil {
		p.logger.Error("delete entry", "service", q.Service, "error", err)
		return StatusOther
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return StatusNotFound
	}
	return StatusSuccess
}

func (p *Postgres) Get(ctx context.Context, q Query) (Item, Status) {
	if q.Kind == "" || q.Service == "" || q.Account == "" {
		return Item{}, StatusBadParameter
	}

	row, st := p.fetch(ctx, q)
	if st != StatusSuccess {
		return Item{}, st
	}

	item := Item{Label: row.label}
	if !q.ReturnValue {
		return item, StatusSuccess
	}
	if st := p.challenge(ctx, row, q); st != StatusSuccess {
		return Item{}, st
	}

	value := row.value
	if p.sealer != nil {
		opened, err := p.sealer.Open(q.Service, q.Account, value)
		if err != nil {
			p.logger.Error("open sealed value", "service", q.Service, "error", err)
			return Item{}, StatusOther
		}
		value = opened
	}
	item.Value = value
	return item, StatusSuccess
}

type pgRow struct {
	label           string
	accessGroup     string
	value           []byte
	protected       bool
	requirePresence bool
}

func (p *Postgres) fetch(ctx context.Context, q Query) (*pgRow, Status) {
	var row pgRow
	err := tx.QuerierFrom(ctx, p.db).QueryRowContext(ctx, `
		SELECT label, access_group, value, protected, require_presence
		FROM credstore_entries
		WHERE kind = $1 AND service = $2 AND account = $3`,
		q.Kind, q.Service, q.Account,
	).Scan(&row.label, &row.accessGroup, &row.value, &row.protected, &row.requirePresence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, StatusNotFound
	}
	if err != nil {
		p.logger.Error("get entry", "service", q.Service, "error", err)
		return nil, StatusOther
	}
	if q.AccessGroup != "" && row.accessGroup != q.AccessGroup {
		return nil, StatusNotFound
	}
	return &row, StatusSuccess
}

func (p *Postgres) challenge(ctx context.Context, row *pgRow, q Query) Status {
	if !row.protected || !row.requirePresence {
		return StatusSuccess
	}
	if q.SuppressAuthUI {
		return StatusAuthFailed
	}
	if p.authorize != nil && !p.authorize(ctx) {
		return StatusAuthFailed
	}
	return StatusSuccess
}
