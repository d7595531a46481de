// Package service implements the application core: account management,
// owner-scoped content operations, the share-link state machine and the
// public view assembly. Handlers stay thin; every rule lives here or in
// the storage layer beneath.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/secondbrain/internal/auth"
	"github.com/patric-chuzhbe/secondbrain/internal/models"
	"github.com/patric-chuzhbe/secondbrain/internal/user"
)

const (
	shareHashSymbols = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// The hash is a bearer credential for read access to a whole
	// collection, so it is drawn from a 62^10 space with crypto/rand.
	shareHashLength = 10

	triesToGenerateUniqueHash = 10
)

type usersKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (string, error)
	GetUserByID(ctx context.Context, userID string) (*user.User, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
}

type contentKeeper interface {
	InsertContent(ctx context.Context, item *models.Content) error
	GetUserContent(ctx context.Context, userID string) ([]models.Content, error)
	DeleteContent(ctx context.Context, contentID, userID string) (bool, error)
}

type shareLinksKeeper interface {
	UpsertShareLink(ctx context.Context, userID, hash string) (string, error)
	DeleteShareLink(ctx context.Context, userID string) error
	FindUserIDByHash(ctx context.Context, hash string) (string, bool, error)
}

type statsKeeper interface {
	GetNumberOfUsers(ctx context.Context) (int64, error)
	GetNumberOfContent(ctx context.Context) (int64, error)
	GetNumberOfShareLinks(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	usersKeeper
	contentKeeper
	shareLinksKeeper
	statsKeeper
	pinger
}

// ErrInvalidContentType is returned when the requested content type is not
// one of the closed enumeration.
var ErrInvalidContentType = errors.New("invalid content type")

// ErrHashSpaceExhausted is returned when repeated draws keep colliding with
// existing share hashes.
var ErrHashSpaceExhausted = errors.New("the number of attempts to generate a unique share hash has been exceeded")

// Service carries the application core operations.
type Service struct {
	db storage
}

// New returns a Service backed by the given storage.
func New(db storage) *Service {
	return &Service{db: db}
}

// SignUp registers a new user with a bcrypt-hashed password.
// Returns models.ErrUsernameTaken when the username already exists.
func (s *Service) SignUp(ctx context.Context, username, password string) error {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = s.db.CreateUser(ctx, &user.User{
		Username:     username,
		PasswordHash: passwordHash,
	})

	return err
}

// Authenticate checks the credentials and returns the user's ID.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	usr, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if usr.ID == "" || !auth.CheckPassword(usr.PasswordHash, password) {
		return "", models.ErrInvalidCredentials
	}

	return usr.ID, nil
}

// AddContent validates and stores a new content item owned by userID.
func (s *Service) AddContent(
	ctx context.Context,
	userID string,
	request models.AddContentRequest,
) (*models.Content, error) {
	contentType := models.ContentType(request.Type)
	if !contentType.IsValid() {
		return nil, ErrInvalidContentType
	}

	tags := funk.UniqString(request.Tags)
	if tags == nil {
		tags = []string{}
	}

	item := &models.Content{
		ID:     uuid.New().String(),
		Title:  request.Title,
		Link:   request.Link,
		Type:   contentType,
		Tags:   tags,
		UserID: userID,
	}

	if err := s.db.InsertContent(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// GetUserContent returns every content item owned by userID.
func (s *Service) GetUserContent(ctx context.Context, userID string) ([]models.Content, error) {
	return s.db.GetUserContent(ctx, userID)
}

// DeleteContent deletes the item only when it is owned by userID.
// A miss and a foreign item both come back as models.ErrNotFound, so the
// caller cannot probe for other users' content IDs.
func (s *Service) DeleteContent(ctx context.Context, contentID, userID string) error {
	deleted, err := s.db.DeleteContent(ctx, contentID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.ErrNotFound
	}

	return nil
}

// EnableSharing turns sharing on for userID and returns the share hash.
// Re-invoking returns the already stored hash; the underlying upsert never
// allocates a second hash for the same user. A draw colliding with another
// user's hash is retried with a fresh one.
func (s *Service) EnableSharing(ctx context.Context, userID string) (string, error) {
	for i := 0; i < triesToGenerateUniqueHash; i++ {
		hash, err := generateShareHash()
		if err != nil {
			return "", err
		}

		storedHash, err := s.db.UpsertShareLink(ctx, userID, hash)
		if errors.Is(err, models.ErrHashCollision) {
			continue
		}
		if err != nil {
			return "", err
		}

		return storedHash, nil
	}

	return "", ErrHashSpaceExhausted
}

// DisableSharing turns sharing off for userID. Disabling an already
// disabled share succeeds and changes nothing.
func (s *Service) DisableSharing(ctx context.Context, userID string) error {
	return s.db.DeleteShareLink(ctx, userID)
}

// GetPublicView resolves a share hash into the owner's username and their
// current content collection. Revoked and never-issued hashes both yield
// models.ErrNotFound. A hash whose owner record is missing yields
// models.ErrIntegrity rather than partial data.
func (s *Service) GetPublicView(ctx context.Context, hash string) (*models.PublicView, error) {
	userID, found, err := s.db.FindUserIDByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound
	}

	owner, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if owner.ID == "" {
		return nil, models.ErrIntegrity
	}

	contents, err := s.db.GetUserContent(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.PublicView{
		Username: owner.Username,
		Content:  contents,
	}, nil
}

// GetInternalStats returns totals for the trusted-subnet stats endpoint.
func (s *Service) GetInternalStats(ctx context.Context) (models.StatsResponse, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.StatsResponse{}, err
	}

	contents, err := s.db.GetNumberOfContent(ctx)
	if err != nil {
		return models.StatsResponse{}, err
	}

	shareLinks, err := s.db.GetNumberOfShareLinks(ctx)
	if err != nil {
		return models.StatsResponse{}, err
	}

	return models.StatsResponse{
		Users:      users,
		Content:    contents,
		ShareLinks: shareLinks,
	}, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func generateShareHash() (string, error) {
	hash := make([]byte, shareHashLength)
	symbolsCount := big.NewInt(int64(len(shareHashSymbols)))

	for i := range hash {
		randomIndex, err := rand.Int(rand.Reader, symbolsCount)
		if err != nil {
			return "", err
		}
		hash[i] = shareHashSymbols[randomIndex.Int64()]
	}

	return string(hash), nil
}
