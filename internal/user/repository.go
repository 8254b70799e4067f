package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"foodgram/internal/database"
)

// Repository handles persistence of users and subscriptions.
type Repository struct {
	db   *database.DB
	cost int
	now  func() time.Time
}

// NewRepository creates a new user repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{
		db:   db,
		cost: bcrypt.DefaultCost,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *Repository) users(viewerID int64) *goqu.SelectDataset {
	return r.db.Dialect.From(goqu.T("users").As("u")).Select(
		goqu.I("u.id").As("id"),
		goqu.I("u.email").As("email"),
		goqu.I("u.username").As("username"),
		goqu.I("u.first_name").As("first_name"),
		goqu.I("u.last_name").As("last_name"),
		goqu.I("u.password_hash").As("password_hash"),
		goqu.I("u.telegram_id").As("telegram_id"),
		goqu.I("u.created_at").As("created_at"),
		goqu.L("EXISTS (SELECT 1 FROM subscriptions s WHERE s.author_id = u.id AND s.user_id = ?)", viewerID).As("is_subscribed"),
	)
}

func (r *Repository) getWhere(ctx context.Context, where goqu.Ex) (*User, error) {
	var u User
	if err := r.db.Get(ctx, r.db.SQL, &u, r.users(0).Where(where)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// Create registers a new account with a bcrypt hashed password.
func (r *Repository) Create(ctx context.Context, reg Registration) (*User, error) {
	reg.Email = strings.TrimSpace(strings.ToLower(reg.Email))
	reg.Username = strings.TrimSpace(reg.Username)
	if err := reg.validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var id int64
	err = r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		for _, c := range []struct {
			column string
			value  string
			err    error
		}{
			{"email", reg.Email, ErrEmailTaken},
			{"username", reg.Username, ErrUsernameTaken},
		} {
			var n int64
			ds := r.db.Dialect.From("users").Select(goqu.COUNT("*")).Where(goqu.Ex{c.column: c.value})
			if err := r.db.Get(ctx, tx, &n, ds); err != nil {
				return fmt.Errorf("failed to check %s: %w", c.column, err)
			}
			if n > 0 {
				return c.err
			}
		}

		id, err = r.db.InsertID(ctx, tx, r.db.Dialect.Insert("users").Rows(goqu.Record{
			"email":         reg.Email,
			"username":      reg.Username,
			"first_name":    reg.FirstName,
			"last_name":     reg.LastName,
			"password_hash": string(hash),
			"created_at":    r.now(),
		}))
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, id)
}

func (reg Registration) validate() error {
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidUser, reg.Email)
	}
	if reg.Username == "" {
		return fmt.Errorf("%w: username must not be empty", ErrInvalidUser)
	}
	if len(reg.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, MinPasswordLength)
	}
	return nil
}

// Get retrieves a user by id.
func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	return r.getWhere(ctx, goqu.Ex{"u.id": id})
}

// GetFor retrieves a user by id with IsSubscribed set for viewerID.
func (r *Repository) GetFor(ctx context.Context, id, viewerID int64) (*User, error) {
	var u User
	if err := r.db.Get(ctx, r.db.SQL, &u, r.users(viewerID).Where(goqu.Ex{"u.id": id})); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetByEmail retrieves a user by email address.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getWhere(ctx, goqu.Ex{"u.email": strings.TrimSpace(strings.ToLower(email))})
}

// GetByTelegramID retrieves the user linked to a Telegram account.
func (r *Repository) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return r.getWhere(ctx, goqu.Ex{"u.telegram_id": telegramID})
}

// List returns every user ordered by id, flagged for viewerID.
func (r *Repository) List(ctx context.Context, viewerID int64) ([]User, error) {
	users := []User{}
	if err := r.db.Select(ctx, r.db.SQL, &users, r.users(viewerID).Order(goqu.I("u.id").Asc())); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Authenticate checks an email and password pair.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// SetPassword replaces the password after verifying the current one.
func (r *Repository) SetPassword(ctx context.Context, id int64, current, next string) error {
	u, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if len(next) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), r.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ds := r.db.Dialect.Update("users").Set(goqu.Record{"password_hash": string(hash)}).Where(goqu.Ex{"id": id})
	if _, err := r.db.Exec(ctx, r.db.SQL, ds.Prepared(true)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// LinkTelegram associates a Telegram account with the user.
func (r *Repository) LinkTelegram(ctx context.Context, id, telegramID int64) error {
	ds := r.db.Dialect.Update("users").Set(goqu.Record{"telegram_id": telegramID}).Where(goqu.Ex{"id": id})
	res, err := r.db.Exec(ctx, r.db.SQL, ds.Prepared(true))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrTelegramLinked
		}
		return fmt.Errorf("failed to link telegram account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
