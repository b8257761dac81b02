package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/duckmesh/schemaprompt/internal/schema"
)

type ConnectionOptions struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// DSN renders the options as a postgres URL understood by pgx.
func (o ConnectionOptions) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Path:   "/" + o.Database,
	}
	if o.Username != "" {
		if o.Password != "" {
			u.User = url.UserPassword(o.Username, o.Password)
		} else {
			u.User = url.User(o.Username)
		}
	}
	if o.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{o.SSLMode}}.Encode()
	}
	return u.String()
}

func (o ConnectionOptions) validate() error {
	if o.Host == "" {
		return fmt.Errorf("host is required")
	}
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("port %d out of range", o.Port)
	}
	if o.Database == "" {
		return fmt.Errorf("database is required")
	}
	return nil
}

// Open returns a pinged handle. Every failure wraps schema.ErrConnection.
func Open(ctx context.Context, opts ConnectionOptions) (*sql.DB, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrConnection, err)
	}

	db, err := sql.Open("pgx", opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", schema.ErrConnection, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres %s:%d: %v", schema.ErrConnection, opts.Host, opts.Port, err)
	}

	return db, nil
}
