// Package filedb is the JSON-file storage backend. It serves requests from
// the in-memory backend and persists the whole cache to a file on Close.
package filedb

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/patric-chuzhbe/secondbrain/internal/db/memorystorage"
	"github.com/patric-chuzhbe/secondbrain/internal/models"
	"github.com/patric-chuzhbe/secondbrain/internal/user"
)

// storedUser is the on-disk shape of a user record. The API-facing
// user.User hides the password hash from JSON, so the database file needs
// its own serialization type to keep credentials across restarts.
type storedUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

type fileCache struct {
	Users        map[string]storedUser      `json:"users"`
	UsernameToID map[string]string          `json:"username_to_id"`
	Content      map[string]*models.Content `json:"content"`
	UserIDToHash map[string]string          `json:"user_id_to_hash"`
	HashToUserID map[string]string          `json:"hash_to_user_id"`
}

func toFileCache(cache memorystorage.Cache) fileCache {
	result := fileCache{
		Users:        map[string]storedUser{},
		UsernameToID: cache.UsernameToID,
		Content:      cache.Content,
		UserIDToHash: cache.UserIDToHash,
		HashToUserID: cache.HashToUserID,
	}
	for id, usr := range cache.Users {
		result.Users[id] = storedUser{
			ID:           usr.ID,
			Username:     usr.Username,
			PasswordHash: usr.PasswordHash,
		}
	}

	return result
}

func (c fileCache) toCache() memorystorage.Cache {
	result := memorystorage.Cache{
		Users:        map[string]*user.User{},
		UsernameToID: c.UsernameToID,
		Content:      c.Content,
		UserIDToHash: c.UserIDToHash,
		HashToUserID: c.HashToUserID,
	}
	for id, usr := range c.Users {
		result.Users[id] = &user.User{
			ID:           usr.ID,
			Username:     usr.Username,
			PasswordHash: usr.PasswordHash,
		}
	}

	return result
}

// FileDB implements storage.Storage by embedding the in-memory backend and
// flushing its cache to a JSON file on shutdown.
type FileDB struct {
	*memorystorage.MemoryStorage
	fileName string
}

// New loads the cache from fileName, creating an empty database file when
// none exists yet.
func New(fileName string) (*FileDB, error) {
	mem, err := memorystorage.New()
	if err != nil {
		return nil, err
	}

	db := &FileDB{
		MemoryStorage: mem,
		fileName:      fileName,
	}

	cache, err := parseJSONFile(fileName)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := db.flush(); err != nil {
			return nil, err
		}
		return db, nil
	}
	db.RestoreCache(cache)

	return db, nil
}

func parseJSONFile(fileName string) (memorystorage.Cache, error) {
	cache := fileCache{}

	file, err := os.Open(fileName)
	if err != nil {
		return memorystorage.Cache{}, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cache); err != nil {
		return memorystorage.Cache{}, err
	}

	return cache.toCache(), nil
}

func (db *FileDB) flush() error {
	jsonData, err := json.MarshalIndent(toFileCache(db.SnapshotCache()), "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(db.fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(jsonData); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

// Close writes the cache back to the database file.
func (db *FileDB) Close() error {
	return db.flush()
}
