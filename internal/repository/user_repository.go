package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/krizzk/be-koszhunter/internal/model"
)

// UserRepo provides data access to the users table.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, uuid, name, email, password, role, phone_number, profile_picture, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.UUID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.PhoneNumber, &u.ProfilePicture, &u.CreatedAt, &u.UpdatedAt)
}

// Create inserts a new user after checking email and phone uniqueness.
// Returns ErrEmailTaken or ErrPhoneTaken on a clash; on success the
// generated ID and timestamps are populated on the model.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	var email, phone string
	err := r.db.QueryRowContext(ctx,
		`SELECT email, phone_number FROM users WHERE email = ? OR phone_number = ? LIMIT 1`,
		u.Email, u.PhoneNumber).Scan(&email, &phone)
	switch {
	case err == nil:
		if email == u.Email {
			return ErrEmailTaken
		}
		return ErrPhoneTaken
	case err != sql.ErrNoRows:
		return err
	}
	const q = `INSERT INTO users (uuid, name, email, password, role, phone_number, profile_picture)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, u.UUID, u.Name, u.Email, u.PasswordHash,
		u.Role, u.PhoneNumber, u.ProfilePicture)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	const sel = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, sel, u.ID), u)
}

// GetByEmail returns the user with the given email. sql.ErrNoRows when
// no such user exists.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	var u model.User
	if err := scanUser(r.db.QueryRowContext(ctx, q, email), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns the user with the given ID.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	var u model.User
	if err := scanUser(r.db.QueryRowContext(ctx, q, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns users whose name matches the search term.
func (r *UserRepo) List(ctx context.Context, search string) ([]model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE name LIKE ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, "%"+strings.TrimSpace(search)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update overwrites the mutable profile fields, password hash included.
// Email and phone uniqueness are re-checked against other users, so a
// clash returns ErrEmailTaken or ErrPhoneTaken just like Create.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	var email, phone string
	err := r.db.QueryRowContext(ctx,
		`SELECT email, phone_number FROM users WHERE (email = ? OR phone_number = ?) AND id <> ? LIMIT 1`,
		u.Email, u.PhoneNumber, u.ID).Scan(&email, &phone)
	switch {
	case err == nil:
		if email == u.Email {
			return ErrEmailTaken
		}
		return ErrPhoneTaken
	case err != sql.ErrNoRows:
		return err
	}
	const q = `UPDATE users SET name = ?, email = ?, password = ?, role = ?, phone_number = ?, profile_picture = ?
	           WHERE id = ?`
	_, err = r.db.ExecContext(ctx, q, u.Name, u.Email, u.PasswordHash, u.Role,
		u.PhoneNumber, u.ProfilePicture, u.ID)
	return err
}

// UpdatePicture replaces only the stored profile picture filename.
func (r *UserRepo) UpdatePicture(ctx context.Context, id uint64, filename string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET profile_picture = ? WHERE id = ?`, filename, id)
	return err
}

// Delete removes a user.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}
