// Package user defines the user model used throughout the application,
// particularly for authentication and content ownership.
package user

// User represents a system user. The password is stored only as a bcrypt
// hash and never leaves the storage layer in responses.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string `json:"id"`

	// Username is unique across all users.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"-"`
}
