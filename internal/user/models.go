package user

import (
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidUser        = errors.New("invalid user")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSelfSubscription   = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed  = errors.New("already subscribed")
	ErrNotSubscribed      = errors.New("not subscribed")
	ErrTelegramLinked     = errors.New("telegram account is linked to another user")
)

// MinPasswordLength is the shortest password accepted on registration.
const MinPasswordLength = 8

// User is a registered account. IsSubscribed is relative to the viewer that
// loaded it.
type User struct {
	ID           int64         `db:"id" json:"id"`
	Email        string        `db:"email" json:"email"`
	Username     string        `db:"username" json:"username"`
	FirstName    string        `db:"first_name" json:"first_name"`
	LastName     string        `db:"last_name" json:"last_name"`
	PasswordHash string        `db:"password_hash" json:"-"`
	TelegramID   sql.NullInt64 `db:"telegram_id" json:"-"`
	CreatedAt    time.Time     `db:"created_at" json:"-"`
	IsSubscribed bool          `db:"is_subscribed" json:"is_subscribed"`
}

// Registration holds the fields needed to create an account.
type Registration struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// RecipeSummary is the short form of a recipe shown next to its author.
type RecipeSummary struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	CookingTime int    `db:"cooking_time" json:"cooking_time"`
}

// Subscription is an author the user follows, with their latest recipes.
type Subscription struct {
	User
	RecipesCount int             `json:"recipes_count"`
	Recipes      []RecipeSummary `json:"recipes"`
}
