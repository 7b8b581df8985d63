package api

import (
	"errors"
	"fmt"
)

// ErrInvalidID flags an identifier that is not a syntactically valid ObjectId.
// It is raised before any store round-trip is attempted.
var ErrInvalidID = errors.New("invalid id format")

// ErrDecode flags a stored document that does not parse into the user entity shape.
var ErrDecode = errors.New("stored document malformed")

// StorageError wraps a driver-level failure (connectivity, timeout, write error)
// and carries the underlying cause for logging at the transport layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err with the storage operation that produced it.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether any error in err's chain is a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// User is the persisted account entity. ID is assigned by the store on insert
// and is empty until the document is persisted. Password holds the bcrypt hash
// at rest; only inbound request payloads carry plaintext.
type User struct {
	ID       string `json:"id,omitempty" bson:"_id,omitempty"`
	Username string `json:"username" bson:"username"`
	Email    string `json:"email" bson:"email"`
	Password string `json:"password" bson:"password"`
}

// LoginRequest represents the expected JSON body for user login.
// It is transient: consumed by the login operation and discarded.
type LoginRequest struct {
	Username string `json:"username" example:"testuser"`
	Password string `json:"password" example:"password123"`
}

// SignUpResponse carries the store-assigned identifier of a new account.
type SignUpResponse struct {
	ID string `json:"id" example:"671f9d0b2c4e5a0012ab34cd"`
}

// Response is the generic wire envelope every endpoint returns.
type Response struct {
	Status     bool   `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}
