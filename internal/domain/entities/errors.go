package entities

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a fatal failure class. Its value is the process exit code.
type ErrorCode int

const (
	ConfigErr    ErrorCode = iota + 1 // invalid or unreadable configuration/repository state
	BranchErr                         // repositories not on their release branch
	CommitErr                         // commit message empty or editor cancelled
	UserInputErr                      // invalid interactive response
	RemoteErr                         // pushing a branch failed
	DupTagErr                         // tag already exists
)

//nolint:gochecknoglobals // lookup table
var errorCodeNames = map[ErrorCode]string{
	ConfigErr:    "CONFIG_ERR",
	BranchErr:    "BRANCH_ERR",
	CommitErr:    "COMMIT_ERR",
	UserInputErr: "USERINPUT_ERR",
	RemoteErr:    "REMOTE_ERR",
	DupTagErr:    "DUPTAG_ERR",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ERR_%d", int(c))
}

// ReleaseError carries an ErrorCode through the usual %w wrapping chain.
type ReleaseError struct {
	Code ErrorCode
	Err  error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ReleaseError) Unwrap() error { return e.Err }

// NewReleaseError wraps err with the given code.
func NewReleaseError(code ErrorCode, err error) *ReleaseError {
	return &ReleaseError{Code: code, Err: err}
}

// Errorf builds a ReleaseError from a format string, keeping %w semantics.
func Errorf(code ErrorCode, format string, args ...any) *ReleaseError {
	return &ReleaseError{Code: code, Err: fmt.Errorf(format, args...)}
}

// CodeOf returns the ErrorCode attached to err, or 0 when there is none.
func CodeOf(err error) ErrorCode {
	var releaseErr *ReleaseError
	if errors.As(err, &releaseErr) {
		return releaseErr.Code
	}
	return 0
}

// ErrTagExists is returned by repositories when a tag name is already taken.
var ErrTagExists = errors.New("tag already exists")

// ErrEditorCancelled is returned when the commit message editor exits with a failure.
var ErrEditorCancelled = errors.New("cancelled by user")
