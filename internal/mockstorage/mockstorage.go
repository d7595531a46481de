// Package mockstorage provides a testify-based mock implementation of the
// storage interface. It is used for unit testing HTTP handlers and the
// service core by simulating storage behavior and failures.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/secondbrain/internal/models"
	"github.com/patric-chuzhbe/secondbrain/internal/user"
)

// StorageMock is a testify mock that implements the storage interface.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks user creation and returns a generated ID.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	args := m.Called(ctx, usr)
	return args.String(0), args.Error(1)
}

// GetUserByID mocks fetching a user by their ID.
func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*user.User), args.Error(1)
}

// GetUserByUsername mocks fetching a user by their username.
func (m *StorageMock) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(*user.User), args.Error(1)
}

// InsertContent mocks persisting a content item.
func (m *StorageMock) InsertContent(ctx context.Context, item *models.Content) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// GetUserContent mocks fetching a user's content collection.
func (m *StorageMock) GetUserContent(ctx context.Context, userID string) ([]models.Content, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Content), args.Error(1)
}

// DeleteContent mocks the owner-scoped conditional delete.
func (m *StorageMock) DeleteContent(ctx context.Context, contentID, userID string) (bool, error) {
	args := m.Called(ctx, contentID, userID)
	return args.Bool(0), args.Error(1)
}

// UpsertShareLink mocks the idempotent share-link insert.
func (m *StorageMock) UpsertShareLink(ctx context.Context, userID, hash string) (string, error) {
	args := m.Called(ctx, userID, hash)
	return args.String(0), args.Error(1)
}

// DeleteShareLink mocks removing a user's share link.
func (m *StorageMock) DeleteShareLink(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// FindUserIDByHash mocks resolving a share hash to its owner.
func (m *StorageMock) FindUserIDByHash(ctx context.Context, hash string) (string, bool, error) {
	args := m.Called(ctx, hash)
	return args.String(0), args.Bool(1), args.Error(2)
}

// GetNumberOfUsers mocks the user count.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfContent mocks the content count.
func (m *StorageMock) GetNumberOfContent(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfShareLinks mocks the share-link count.
func (m *StorageMock) GetNumberOfShareLinks(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
