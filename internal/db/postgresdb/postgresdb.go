// Package postgresdb provides the PostgreSQL-based implementation of the
// storage interface. Every invariant the service relies on (unique
// username, at most one share link per user, globally unique hash,
// owner-scoped delete) is enforced by constraints and single conditional
// statements, so concurrent requests cannot race each other.
package postgresdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/secondbrain/internal/models"
	"github.com/patric-chuzhbe/secondbrain/internal/user"
)

const uniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed implementation of the storage interface.
type PostgresDB struct {
	database     *sql.DB
	queryTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables resetting the database schema before migration.
// It is meant for test setups.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database, runs schema
// migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	queryTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:     database,
		queryTimeout: queryTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil, fmt.Errorf("in postgresdb.New(): error while `result.resetDB()` calling: %w", err)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("in postgresdb.New(): error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("in postgresdb.New(): error while `goose.Up()` calling: %w", err)
	}

	return result, nil
}

func (db *PostgresDB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.queryTimeout)
}

// mapStorageError converts low-level failures - query timeouts, dropped
// connections, network errors - into the storage-unavailable sentinel so
// callers never see driver internals.
func mapStorageError(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}

// CreateUser inserts a new user record and returns the generated ID.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`,
		usr.Username,
		usr.PasswordHash,
	)
	var userID string
	if err := row.Scan(&userID); err != nil {
		if isUniqueViolation(err, "users_username_key") {
			return "", models.ErrUsernameTaken
		}
		return "", mapStorageError(err)
	}

	return userID, nil
}

// GetUserByID fetches a user by their UUID. If the user does not exist,
// it returns a user with an empty ID field.
func (db *PostgresDB) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	if userID == "" {
		return &user.User{ID: ""}, nil
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, username, password_hash FROM users WHERE id = $1`,
		userID,
	)
	usr := &user.User{}
	if err := row.Scan(&usr.ID, &usr.Username, &usr.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &user.User{ID: ""}, nil
		}
		return &user.User{ID: ""}, mapStorageError(err)
	}

	return usr, nil
}

// GetUserByUsername fetches a user by username. If the user does not exist,
// it returns a user with an empty ID field.
func (db *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`,
		username,
	)
	usr := &user.User{}
	if err := row.Scan(&usr.ID, &usr.Username, &usr.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &user.User{ID: ""}, nil
		}
		return &user.User{ID: ""}, mapStorageError(err)
	}

	return usr, nil
}

// InsertContent persists a new content item owned by item.UserID.
func (db *PostgresDB) InsertContent(ctx context.Context, item *models.Content) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return err
	}

	_, err = db.database.ExecContext(
		ctx,
		`INSERT INTO content (id, title, link, type, tags, user_id) VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID,
		item.Title,
		item.Link,
		string(item.Type),
		tags,
		item.UserID,
	)

	return mapStorageError(err)
}

// GetUserContent returns every content item owned by userID.
func (db *PostgresDB) GetUserContent(ctx context.Context, userID string) ([]models.Content, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, title, link, type, tags, user_id FROM content WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, mapStorageError(err)
	}
	defer rows.Close()

	result := []models.Content{}
	for rows.Next() {
		var item models.Content
		var contentType string
		var tags []byte
		if err := rows.Scan(&item.ID, &item.Title, &item.Link, &contentType, &tags, &item.UserID); err != nil {
			return nil, mapStorageError(err)
		}
		item.Type = models.ContentType(contentType)
		if err := json.Unmarshal(tags, &item.Tags); err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, mapStorageError(err)
	}

	return result, nil
}

// DeleteContent deletes the content row only when it is owned by userID.
// The ownership check lives in the WHERE clause, so the delete is a single
// atomic conditional statement.
func (db *PostgresDB) DeleteContent(ctx context.Context, contentID, userID string) (bool, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	result, err := db.database.ExecContext(
		ctx,
		`DELETE FROM content WHERE id = $1 AND user_id = $2`,
		contentID,
		userID,
	)
	if err != nil {
		return false, mapStorageError(err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return deleted > 0, nil
}

// UpsertShareLink atomically inserts the (hash, userID) pair if the user
// has no share link yet and returns whichever hash the user ends up with.
// The no-op DO UPDATE makes the conflicting row visible to RETURNING, so
// a double-invocation by the same user yields one hash, not two.
func (db *PostgresDB) UpsertShareLink(ctx context.Context, userID, hash string) (string, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO share_links (user_id, hash)
				VALUES ($1, $2)
				ON CONFLICT (user_id) DO UPDATE
				SET hash = share_links.hash
				RETURNING hash
		`,
		userID,
		hash,
	)
	var storedHash string
	if err := row.Scan(&storedHash); err != nil {
		if isUniqueViolation(err, "share_links_hash_key") {
			return "", models.ErrHashCollision
		}
		return "", mapStorageError(err)
	}

	return storedHash, nil
}

// DeleteShareLink removes the user's share link. Deleting a nonexistent
// link succeeds and changes nothing.
func (db *PostgresDB) DeleteShareLink(ctx context.Context, userID string) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	_, err := db.database.ExecContext(
		ctx,
		`DELETE FROM share_links WHERE user_id = $1`,
		userID,
	)

	return mapStorageError(err)
}

// FindUserIDByHash resolves a share hash to the owning user ID.
func (db *PostgresDB) FindUserIDByHash(ctx context.Context, hash string) (string, bool, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	row := db.database.QueryRowContext(
		ctx,
		`SELECT user_id FROM share_links WHERE hash = $1`,
		hash,
	)
	var userID string
	if err := row.Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, mapStorageError(err)
	}

	return userID, true, nil
}

// GetNumberOfUsers returns the total number of registered users.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	return db.countRows(ctx, `SELECT COUNT(*) FROM users`)
}

// GetNumberOfContent returns the total number of stored content items.
func (db *PostgresDB) GetNumberOfContent(ctx context.Context) (int64, error) {
	return db.countRows(ctx, `SELECT COUNT(*) FROM content`)
}

// GetNumberOfShareLinks returns the number of active share links.
func (db *PostgresDB) GetNumberOfShareLinks(ctx context.Context) (int64, error) {
	return db.countRows(ctx, `SELECT COUNT(*) FROM share_links`)
}

func (db *PostgresDB) countRows(ctx context.Context, query string) (int64, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := db.database.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, mapStorageError(err)
	}

	return count, nil
}

// Ping verifies connectivity with the PostgreSQL database within the
// configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	return mapStorageError(db.database.PingContext(ctx))
}

// Close closes the database connection.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf("in postgresdb.resetDB(): error while `db.database.ExecContext()` calling: %w", err)
	}

	return nil
}
