package types

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrNetwork covers malformed URLs, connection, timeout, TLS failures and
	// unexpected HTTP statuses.
	ErrNetwork = errors.New("network error")
	// ErrDeserialization means a response body did not have the expected shape.
	ErrDeserialization = errors.New("deserialization error")
	// ErrIntegrity means the bytes on disk do not match what the server announced.
	ErrIntegrity = errors.New("integrity error")
	// ErrIncompleteTransfer means the body stream broke off before end of
	// stream. It is a kind of ErrIntegrity.
	ErrIncompleteTransfer = fmt.Errorf("incomplete transfer: %w", ErrIntegrity)
	// ErrAssetNotFound means no release asset matches the expected binary name.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrFilesystem covers directory creation, file create/write, permission
	// and rename failures.
	ErrFilesystem = errors.New("filesystem error")
	// ErrCrossDevice means a rename crossed filesystems. It is a kind of
	// ErrFilesystem.
	ErrCrossDevice = fmt.Errorf("cross-device rename: %w", ErrFilesystem)
)

// Error is a failure of one operation, tagged with its kind.
type Error struct {
	Kind error  // One of the Err* kinds above
	Op   string // Operation that failed, e.g. "download"
	Err  error  // Underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is/errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError tags err with kind for operation op.
func NewError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf tags a formatted message with kind for operation op.
func Errorf(kind error, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the most specific kind attached to err, or nil if err
// carries none.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrIncompleteTransfer,
		ErrCrossDevice,
		ErrNetwork,
		ErrDeserialization,
		ErrIntegrity,
		ErrAssetNotFound,
		ErrFilesystem,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
