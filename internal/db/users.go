package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/tgienger/tnm/internal/models"
)

// hashPassword returns the hex SHA-256 digest stored in users.password
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyUser returns the id of the user matching username and password.
// An unknown username and a wrong password both report ok == false.
func (db *DB) VerifyUser(ctx context.Context, username, password string) (int64, bool, error) {
	var id int64
	err := db.GetContext(ctx, &id,
		db.Rebind(`SELECT id FROM users WHERE username = ? AND password = ?`),
		username, hashPassword(password))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("verify user: %w", err)
	}
	return id, true, nil
}

// RegisterUser creates a user. A taken username reports ok == false and leaves no row behind.
func (db *DB) RegisterUser(ctx context.Context, username, password string) (int64, bool, error) {
	if !models.ValidUsername(username) {
		return 0, false, models.ErrInvalidUsername
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin register: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowxContext(ctx,
		tx.Rebind(`INSERT INTO users (username, password) VALUES (?, ?) RETURNING id`),
		username, hashPassword(password)).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			db.log.Debug("username already registered", "username", username)
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit register: %w", err)
	}
	return id, true, nil
}

// Login verifies the credentials and registers the username when it is not known yet.
// registered reports that a new account was created.
func (db *DB) Login(ctx context.Context, username, password string) (id int64, registered bool, err error) {
	id, ok, err := db.VerifyUser(ctx, username, password)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return id, false, nil
	}

	id, ok, err = db.RegisterUser(ctx, username, password)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, models.ErrLoginFailed
	}
	db.log.Info("user registered", "user_id", id)
	return id, true, nil
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := db.GetContext(ctx, &u, db.Rebind(`SELECT id, username FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CountUsers returns the number of registered users
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
