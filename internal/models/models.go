package models

import "errors"

// ContentType is the closed set of content kinds a user may save.
type ContentType string

// Allowed content types. Anything else is rejected at the boundary.
const (
	ContentTypeLink     ContentType = "link"
	ContentTypeTweet    ContentType = "tweet"
	ContentTypeVideo    ContentType = "video"
	ContentTypeDocument ContentType = "document"
)

// IsValid reports whether t is one of the allowed content types.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeLink, ContentTypeTweet, ContentTypeVideo, ContentTypeDocument:
		return true
	}
	return false
}

// Content is a single saved item. Ownership is fixed at creation and never
// transfers.
type Content struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Link   string      `json:"link"`
	Type   ContentType `json:"type"`
	Tags   []string    `json:"tags"`
	UserID string      `json:"userId"`
}

// SignupRequest is the body of POST /api/v1/signup.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
}

// SigninRequest is the body of POST /api/v1/signin.
type SigninRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SigninResponse carries the bearer token issued on successful signin.
type SigninResponse struct {
	Token string `json:"token"`
}

// AddContentRequest is the body of POST /api/v1/content.
type AddContentRequest struct {
	Link  string   `json:"link" validate:"required"`
	Type  string   `json:"type" validate:"required"`
	Title string   `json:"title" validate:"required"`
	Tags  []string `json:"tags"`
}

// AddContentResponse echoes the created item back to the client.
type AddContentResponse struct {
	Message string  `json:"message"`
	Content Content `json:"content"`
}

// ShareRequest is the body of POST /api/v1/brain/share.
type ShareRequest struct {
	Share bool `json:"share"`
}

// ShareResponse carries the share hash after sharing was enabled.
type ShareResponse struct {
	Hash string `json:"hash"`
}

// PublicView is the payload served for a share hash: the owner's display
// name and their current content collection.
type PublicView struct {
	Username string    `json:"username"`
	Content  []Content `json:"content"`
}

// MessageResponse is the uniform `{message}` body used for plain
// confirmations and for every error response.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatsResponse is served by the trusted-subnet-only internal stats endpoint.
type StatsResponse struct {
	Users      int64 `json:"users"`
	Content    int64 `json:"content"`
	ShareLinks int64 `json:"share_links"`
}

// ErrUsernameTaken is returned when signup hits the unique username constraint.
var ErrUsernameTaken = errors.New("username already taken")

// ErrInvalidCredentials is returned when signin fails the password check
// or the username is unknown.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNotFound is returned for lookups that matched nothing the caller is
// allowed to see. It intentionally covers both "does not exist" and
// "exists but is not yours".
var ErrNotFound = errors.New("not found")

// ErrUnknownUser is returned when a verified token references a user that
// no longer exists in storage.
var ErrUnknownUser = errors.New("unknown user")

// ErrHashCollision is returned by storage when a freshly generated share
// hash is already held by another user. The caller retries with a new draw.
var ErrHashCollision = errors.New("share hash already in use")

// ErrIntegrity is returned when a share link references a missing owner.
var ErrIntegrity = errors.New("referential integrity violation")

// ErrStorageUnavailable is returned when the storage backend times out or
// cannot be reached. It is reported to clients as a generic server error.
var ErrStorageUnavailable = errors.New("storage unavailable")

const (
	// StorageTypeUnknown marks an unrecognized storage configuration.
	StorageTypeUnknown = iota
	// StorageTypePostgresql selects the Postgres backend.
	StorageTypePostgresql
	// StorageTypeFile selects the JSON-file backend.
	StorageTypeFile
	// StorageTypeMemory selects the in-memory backend.
	StorageTypeMemory
)
