// Package memorystorage is the in-memory storage backend. It is used when
// neither a database DSN nor a file path is configured, and by tests.
package memorystorage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/secondbrain/internal/models"
	"github.com/patric-chuzhbe/secondbrain/internal/user"
)

// Cache holds every table of the service as plain maps. It is exported so
// the file-backed storage can serialize it.
type Cache struct {
	Users        map[string]*user.User
	UsernameToID map[string]string
	Content      map[string]*models.Content
	UserIDToHash map[string]string
	HashToUserID map[string]string
}

// MemoryStorage implements storage.Storage on top of a mutex-guarded Cache.
type MemoryStorage struct {
	mu    sync.RWMutex
	Cache Cache
}

// New returns an empty MemoryStorage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		Cache: NewCache(),
	}, nil
}

// NewCache returns a Cache with every map initialized.
func NewCache() Cache {
	return Cache{
		Users:        map[string]*user.User{},
		UsernameToID: map[string]string{},
		Content:      map[string]*models.Content{},
		UserIDToHash: map[string]string{},
		HashToUserID: map[string]string{},
	}
}

// CreateUser inserts a new user, enforcing username uniqueness.
func (s *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.Cache.UsernameToID[usr.Username]; taken {
		return "", models.ErrUsernameTaken
	}

	id := uuid.New().String()
	s.Cache.Users[id] = &user.User{
		ID:           id,
		Username:     usr.Username,
		PasswordHash: usr.PasswordHash,
	}
	s.Cache.UsernameToID[usr.Username] = id

	return id, nil
}

// GetUserByID fetches a user by ID; absent users come back with an empty ID.
func (s *MemoryStorage) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, found := s.Cache.Users[userID]
	if !found {
		return &user.User{ID: ""}, nil
	}
	copied := *usr

	return &copied, nil
}

// GetUserByUsername fetches a user by username; absent users come back with
// an empty ID.
func (s *MemoryStorage) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, found := s.Cache.UsernameToID[username]
	if !found {
		return &user.User{ID: ""}, nil
	}
	copied := *s.Cache.Users[id]

	return &copied, nil
}

// InsertContent stores a new content item.
func (s *MemoryStorage) InsertContent(ctx context.Context, item *models.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *item
	copied.Tags = append([]string(nil), item.Tags...)
	s.Cache.Content[item.ID] = &copied

	return nil
}

// GetUserContent returns every content item owned by userID.
func (s *MemoryStorage) GetUserContent(ctx context.Context, userID string) ([]models.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Content{}
	for _, item := range s.Cache.Content {
		if item.UserID != userID {
			continue
		}
		copied := *item
		copied.Tags = append([]string(nil), item.Tags...)
		result = append(result, copied)
	}

	return result, nil
}

// DeleteContent deletes the item only when it is owned by userID. The
// ownership check and the delete happen under one lock acquisition.
func (s *MemoryStorage) DeleteContent(ctx context.Context, contentID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, found := s.Cache.Content[contentID]
	if !found || item.UserID != userID {
		return false, nil
	}
	delete(s.Cache.Content, contentID)

	return true, nil
}

// UpsertShareLink implements the "insert if absent, else return existing"
// contract under a single lock acquisition.
func (s *MemoryStorage) UpsertShareLink(ctx context.Context, userID, hash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, shared := s.Cache.UserIDToHash[userID]; shared {
		return existing, nil
	}

	if _, taken := s.Cache.HashToUserID[hash]; taken {
		return "", models.ErrHashCollision
	}

	s.Cache.UserIDToHash[userID] = hash
	s.Cache.HashToUserID[hash] = userID

	return hash, nil
}

// DeleteShareLink removes the user's share link if there is one.
func (s *MemoryStorage) DeleteShareLink(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, shared := s.Cache.UserIDToHash[userID]
	if !shared {
		return nil
	}
	delete(s.Cache.UserIDToHash, userID)
	delete(s.Cache.HashToUserID, hash)

	return nil
}

// FindUserIDByHash resolves a share hash to its owner.
func (s *MemoryStorage) FindUserIDByHash(ctx context.Context, hash string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, found := s.Cache.HashToUserID[hash]

	return userID, found, nil
}

// GetNumberOfUsers returns the total number of registered users.
func (s *MemoryStorage) GetNumberOfUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.Cache.Users)), nil
}

// GetNumberOfContent returns the total number of stored content items.
func (s *MemoryStorage) GetNumberOfContent(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.Cache.Content)), nil
}

// GetNumberOfShareLinks returns the number of active share links.
func (s *MemoryStorage) GetNumberOfShareLinks(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.Cache.UserIDToHash)), nil
}

// SnapshotCache returns a copy of the cache maps, safe to serialize while
// the storage keeps serving requests.
func (s *MemoryStorage) SnapshotCache() Cache {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := NewCache()
	for k, v := range s.Cache.Users {
		copied := *v
		snapshot.Users[k] = &copied
	}
	for k, v := range s.Cache.UsernameToID {
		snapshot.UsernameToID[k] = v
	}
	for k, v := range s.Cache.Content {
		copied := *v
		copied.Tags = append([]string(nil), v.Tags...)
		snapshot.Content[k] = &copied
	}
	for k, v := range s.Cache.UserIDToHash {
		snapshot.UserIDToHash[k] = v
	}
	for k, v := range s.Cache.HashToUserID {
		snapshot.HashToUserID[k] = v
	}

	return snapshot
}

// RestoreCache replaces the cache contents, normalizing nil maps.
func (s *MemoryStorage) RestoreCache(cache Cache) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := NewCache()
	if cache.Users != nil {
		normalized.Users = cache.Users
	}
	if cache.UsernameToID != nil {
		normalized.UsernameToID = cache.UsernameToID
	}
	if cache.Content != nil {
		normalized.Content = cache.Content
	}
	if cache.UserIDToHash != nil {
		normalized.UserIDToHash = cache.UserIDToHash
	}
	if cache.HashToUserID != nil {
		normalized.HashToUserID = cache.HashToUserID
	}
	s.Cache = normalized
}

// Ping always succeeds for the in-memory backend.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStorage) Close() error {
	return nil
}
