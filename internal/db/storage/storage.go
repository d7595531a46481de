// Package storage declares the interface every storage backend of the
// service implements. Invariants (unique username, at most one share link
// per user, globally unique hash, owner-scoped delete) are enforced inside
// the implementations with atomic conditional writes, never by callers.
package storage

import (
	"context"

	"github.com/patric-chuzhbe/secondbrain/internal/models"
	"github.com/patric-chuzhbe/secondbrain/internal/user"
)

// Storage is the full persistence contract of the service.
type Storage interface {
	// CreateUser inserts a new user and returns its generated ID.
	// Returns models.ErrUsernameTaken when the username already exists.
	CreateUser(ctx context.Context, usr *user.User) (string, error)

	// GetUserByID fetches a user by ID. A user with an empty ID field is
	// returned when no such user exists.
	GetUserByID(ctx context.Context, userID string) (*user.User, error)

	// GetUserByUsername fetches a user by username. A user with an empty
	// ID field is returned when no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)

	// InsertContent persists a new content item owned by item.UserID.
	InsertContent(ctx context.Context, item *models.Content) error

	// GetUserContent returns every content item owned by userID.
	GetUserContent(ctx context.Context, userID string) ([]models.Content, error)

	// DeleteContent deletes the content row only if it is owned by userID.
	// It reports whether a row was deleted. The check and the delete are a
	// single conditional statement.
	DeleteContent(ctx context.Context, contentID, userID string) (bool, error)

	// UpsertShareLink atomically inserts (hash, userID) if the user has no
	// share link yet, and returns the hash the user ends up with - the new
	// one or a previously stored one. Returns models.ErrHashCollision when
	// hash is already held by a different user.
	UpsertShareLink(ctx context.Context, userID, hash string) (string, error)

	// DeleteShareLink removes the user's share link. Deleting a
	// nonexistent link is not an error.
	DeleteShareLink(ctx context.Context, userID string) error

	// FindUserIDByHash resolves a share hash to the owning user ID.
	FindUserIDByHash(ctx context.Context, hash string) (string, bool, error)

	// GetNumberOfUsers returns the total number of registered users.
	GetNumberOfUsers(ctx context.Context) (int64, error)

	// GetNumberOfContent returns the total number of stored content items.
	GetNumberOfContent(ctx context.Context) (int64, error)

	// GetNumberOfShareLinks returns the number of active share links.
	GetNumberOfShareLinks(ctx context.Context) (int64, error)

	// Ping checks the health of the backend.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}
