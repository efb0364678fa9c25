package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	goSession "github.com/MrEthical07/goSession"
)

// DefaultBannedUsernames are refused at sign-up because they collide with
// routes or impersonate staff.
var DefaultBannedUsernames = []string{
	"admin", "administrator", "root", "system", "support", "staff",
	"moderator", "me", "api", "auth", "settings", "null", "undefined",
}

// Directory reads and writes accounts through bun. It is safe for
// concurrent use.
type Directory struct {
	db     bun.IDB
	banned map[string]struct{}
}

// Option configures a Directory.
type Option func(*Directory)

// WithBannedUsernames replaces the reserved username list.
func WithBannedUsernames(names ...string) Option {
	return func(d *Directory) {
		d.banned = make(map[string]struct{}, len(names))
		for _, n := range names {
			d.banned[strings.ToLower(n)] = struct{}{}
		}
	}
}

// NewDirectory wraps db.
func NewDirectory(db bun.IDB, opts ...Option) *Directory {
	d := &Directory{db: db}
	WithBannedUsernames(DefaultBannedUsernames...)(d)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open opens a SQLite database through bun's sqliteshim driver.
func Open(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateSchema creates the users table and its indexes if missing.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().Model((*User)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	for _, col := range []string{"username", "display_name", "email"} {
		if _, err := db.NewCreateIndex().
			Model((*User)(nil)).
			Index("users_" + col + "_index").
			Column(col).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create users %s index: %w", col, err)
		}
	}
	return nil
}

func (d *Directory) findOne(ctx context.Context, column, value string) (*goSession.Account, error) {
	u := new(User)
	err := d.db.NewSelect().Model(u).Where("? = ?", bun.Ident(column), value).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goSession.ErrAccountNotFound
		}
		return nil, err
	}
	return u.account(), nil
}

// FindByUsername returns the live account with the exact username.
func (d *Directory) FindByUsername(ctx context.Context, username string) (*goSession.Account, error) {
	return d.findOne(ctx, "username", username)
}

// FindByEmail returns the live account with the email, compared case-insensitively.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*goSession.Account, error) {
	return d.findOne(ctx, "email", strings.ToLower(email))
}

// FindByID returns the live account with the given UUID.
func (d *Directory) FindByID(ctx context.Context, id string) (*goSession.Account, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, goSession.ErrAccountNotFound
	}
	return d.findOne(ctx, "uuid", parsed.String())
}

// CreateAccount inserts a new account. Usernames and emails held by
// soft-deleted accounts stay taken.
func (d *Directory) CreateAccount(ctx context.Context, req goSession.NewAccount) (*goSession.Account, error) {
	if _, banned := d.banned[strings.ToLower(req.Username)]; banned {
		return nil, goSession.ErrUsernameReserved
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	now := time.Now().UTC()
	u := &User{
		ID:          uuid.New(),
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       email,
		Password:    req.PasswordHash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := d.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if taken, err := d.taken(ctx, tx, "email", email); err != nil {
			return err
		} else if taken {
			return goSession.ErrEmailTaken
		}
		if taken, err := d.taken(ctx, tx, "username", req.Username); err != nil {
			return err
		} else if taken {
			return goSession.ErrUsernameTaken
		}
		_, err := tx.NewInsert().Model(u).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u.account(), nil
}

func (d *Directory) taken(ctx context.Context, tx bun.Tx, column, value string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		WhereAllWithDeleted().
		Where("? = ?", bun.Ident(column), value).
		Exists(ctx)
}

// SoftDelete marks the account deleted. Its sessions stop authenticating
// on their next request.
func (d *Directory) SoftDelete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return goSession.ErrAccountNotFound
	}
	res, err := d.db.NewDelete().Model(new(User)).Where("uuid = ?", parsed.String()).Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return goSession.ErrAccountNotFound
	}
	return nil
}
