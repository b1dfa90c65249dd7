package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/concert-ticketing/internal/auth"
	"github.com/iliyamo/concert-ticketing/internal/model"
)

// UserRepo reads and writes the users table. The reservation slot column
// is owned by ReservationRepo and only read here.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser carries registration input; Password is plain text.
type NewUser struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// Create hashes the password and inserts the user, returning its ID.
func (r *UserRepo) Create(ctx context.Context, u NewUser, cost int) (uint64, error) {
	hash, err := auth.HashPassword(u.Password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, first_name, last_name, role) VALUES (?,?,?,?,?)",
		normalizeUsername(u.Username), hash, u.FirstName, u.LastName, u.Role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const userColumns = "id, username, password_hash, first_name, last_name, role, reservation_id, created_at, updated_at"

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, bool, error) {
	return r.one(ctx, "SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1", normalizeUsername(username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, bool, error) {
	return r.one(ctx, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
}

func (r *UserRepo) one(ctx context.Context, query string, arg any) (model.User, bool, error) {
	var u model.User
	var slot sql.NullInt64
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &slot, &u.CreatedAt, &u.UpdatedAt)
	ok, err := found(err)
	if !ok || err != nil {
		return model.User{}, false, err
	}
	if slot.Valid {
		id := uint64(slot.Int64)
		u.ReservationID = &id
	}
	return u, true, nil
}

func normalizeUsername(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
