// Package sessionstore holds the scs stores backing the two auth scopes:
// Postgres for the remember-me scope and Redis for the browser-session one.
package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type Postgres struct {
	db  *sqlx.DB
	log logrus.FieldLogger
}

func NewPostgres(db *sqlx.DB, log logrus.FieldLogger) *Postgres {
	return &Postgres{db: db, log: log}
}

func (p *Postgres) Find(token string) ([]byte, bool, error) {
	return p.FindCtx(context.Background(), token)
}

func (p *Postgres) Commit(token string, b []byte, expiry time.Time) error {
	return p.CommitCtx(context.Background(), token, b, expiry)
}

func (p *Postgres) Delete(token string) error {
	return p.DeleteCtx(context.Background(), token)
}

func (p *Postgres) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	const q = `SELECT data FROM sessions WHERE token = $1 AND current_timestamp < expiry`

	var b []byte
	if err := p.db.GetContext(ctx, &b, q, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (p *Postgres) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	const q = `
	INSERT INTO sessions (token, data, expiry) VALUES ($1, $2, $3)
	ON CONFLICT (token) DO UPDATE SET data = EXCLUDED.data, expiry = EXCLUDED.expiry`

	_, err := p.db.ExecContext(ctx, q, token, b, expiry.UTC())
	return err
}

func (p *Postgres) DeleteCtx(ctx context.Context, token string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// Cleanup deletes expired sessions every interval until ctx is done.
func (p *Postgres) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := p.deleteExpired(ctx)
			if err != nil {
				p.log.WithError(err).Error("session cleanup")
				continue
			}
			if n > 0 {
				p.log.WithField("sessions", n).Debug("expired sessions removed")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Postgres) deleteExpired(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE expiry < current_timestamp`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
