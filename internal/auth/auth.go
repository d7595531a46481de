// Package auth provides bearer-token authentication for HTTP requests:
// issuing signed JWTs on signin, verifying them on every private endpoint,
// and hashing passwords. It is the only place authentication failures are
// resolved; business logic never sees an unauthenticated request.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/secondbrain/internal/logger"
	"github.com/patric-chuzhbe/secondbrain/internal/user"
)

type userKeeper interface {
	GetUserByID(ctx context.Context, userID string) (*user.User, error)
}

// Auth verifies bearer tokens and resolves them to user identities.
type Auth struct {
	// db is the interface to the user data storage.
	db userKeeper

	// signingSecretKey is the key used to sign JWTs.
	signingSecretKey []byte

	// tokenTTL is how long an issued token stays valid.
	tokenTTL time.Duration
}

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds a user-specific identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated user's ID.
const UserIDKey ContextKey = "userID"

// ErrNoToken is returned when the Authorization header is missing or not
// a Bearer scheme.
var ErrNoToken = errors.New("no token provided")

// ErrInvalidToken is returned when the token fails signature or structure
// verification.
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenExpired is returned when a well-formed token is past its expiry.
var ErrTokenExpired = errors.New("token expired")

// New creates a new Auth handler with the given user data access layer,
// JWT signing secret and token lifetime.
func New(db userKeeper, signingSecretKey []byte, tokenTTL time.Duration) *Auth {
	return &Auth{
		db:               db,
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
	}
}

// IssueToken builds a signed JWT carrying the user's identity claim.
func (a *Auth) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(a.signingSecretKey)
}

func (a *Auth) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingSecretKey, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func bearerToken(request *http.Request) (string, error) {
	header := request.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrNoToken
	}

	return parts[1], nil
}

func rejectWithMessage(response http.ResponseWriter, status int, message string) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(map[string]string{"message": message}); err != nil {
		logger.Log.Debugln("Error encoding the rejection body: ", zap.Error(err))
	}
}

// AuthenticateUser is an HTTP middleware that authenticates incoming
// requests using the `Authorization: Bearer <token>` header. It rejects
// missing, malformed, expired and orphaned tokens before the request
// reaches any handler, and stores the resolved user ID in the request
// context otherwise.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString, err := bearerToken(request)
		if err != nil {
			rejectWithMessage(response, http.StatusUnauthorized, "No token provided")
			return
		}

		claims, err := a.parseToken(tokenString)
		switch {
		case errors.Is(err, ErrTokenExpired):
			rejectWithMessage(response, http.StatusUnauthorized, "Token expired")
			return
		case err != nil:
			rejectWithMessage(response, http.StatusUnauthorized, "Invalid token")
			return
		}

		usr, err := a.db.GetUserByID(request.Context(), claims.UserID)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.db.GetUserByID()`: ", zap.Error(err))
			rejectWithMessage(response, http.StatusInternalServerError, "Authentication failed")
			return
		}
		// A valid token may outlive its account.
		if usr.ID == "" {
			rejectWithMessage(response, http.StatusUnauthorized, "User not found")
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, usr.ID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// UserIDFromContext extracts the authenticated user's ID stored by
// AuthenticateUser.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)

	return userID, ok && userID != ""
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored
// bcrypt hash.
func CheckPassword(passwordHash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil
}
