package users

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"echocheck/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

var (
	// ErrSchemaMismatch indicates the database schema version doesn't match.
	ErrSchemaMismatch = errors.New("users schema version mismatch")
	// ErrUsernameTaken indicates the requested username already exists.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrEmailTaken indicates the requested email already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("user not found")
)

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store manages account persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the users database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "users.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the database file on disk.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create users schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read users schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// Register creates an account after hashing the password. Usernames and
// emails are unique case-insensitively.
func (s *Store) Register(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		username, email, hash, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if constraint := classifyUniqueViolation(err); constraint != nil {
			return nil, constraint
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read user id: %w", err)
	}
	return &User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Authenticate verifies a username/password pair and returns the account.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.byColumn(ctx, "username", strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ByID fetches an account by its primary key.
func (s *Store) ByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// ByUsername fetches an account by username, case-insensitively.
func (s *Store) ByUsername(ctx context.Context, username string) (*User, error) {
	return s.byColumn(ctx, "username", strings.TrimSpace(username))
}

// DisplayName resolves an account to a name usable in reports. It satisfies
// the report stage's user directory contract.
func (s *Store) DisplayName(ctx context.Context, id int64) (string, error) {
	user, err := s.ByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

func (s *Store) byColumn(ctx context.Context, column, value string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE %s = ?`, column),
		value)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		user      User
		createdAt string
		updatedAt string
	)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.CreatedAt = parseTimestamp(createdAt)
	user.UpdatedAt = parseTimestamp(updatedAt)
	return &user, nil
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return parsed
	}
	return time.Time{}
}

func classifyUniqueViolation(err error) error {
	message := err.Error()
	if !strings.Contains(message, "UNIQUE constraint failed") && !strings.Contains(message, "constraint failed") {
		return nil
	}
	switch {
	case strings.Contains(message, "users.username"):
		return ErrUsernameTaken
	case strings.Contains(message, "users.email"):
		return ErrEmailTaken
	default:
		return ErrUsernameTaken
	}
}
