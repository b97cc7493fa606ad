package keyring

import (
	goerrors "github.com/agilira/go-errors"
)

// Error codes surfaced by Store methods. CodeLocked and CodeBusy are
// transient: the caller may retry. CodeNotFound is a normal miss, not a
// failure. CodeConflict is a set_* overwrite refusal. Everything else the
// driver can throw at us folds into CodeFatal.
const (
	CodeLocked   goerrors.ErrorCode = "keyring_locked"
	CodeBusy     goerrors.ErrorCode = "keyring_busy"
	CodeNotFound goerrors.ErrorCode = "keyring_not_found"
	CodeConflict goerrors.ErrorCode = "keyring_conflict"
	CodeFatal    goerrors.ErrorCode = "keyring_fatal"
)

// Error is the error type every Store method returns on failure. It wraps
// one of the Code* constants above so cli.ExitCodeForError can map it to
// an exit code by checking that code with goerrors.HasCode.
type Error = goerrors.Error

func newLocked(op string, cause error) *Error {
	return goerrors.Wrap(cause, CodeLocked, "keyring: "+op+": database is locked").
		WithContext("op", op).
		AsRetryable()
}

func newBusy(op string, cause error) *Error {
	return goerrors.Wrap(cause, CodeBusy, "keyring: "+op+": database is busy").
		WithContext("op", op).
		AsRetryable()
}

func newNotFound(op, name string) *Error {
	return goerrors.NewWithField(CodeNotFound, "keyring: "+op+": no such name", "name", name)
}

func newConflict(op, name, half string) *Error {
	return goerrors.NewWithContext(CodeConflict, "keyring: "+op+": "+half+" half already exists", map[string]interface{}{
		"name": name,
		"half": half,
	})
}

func newFatal(op string, cause error) *Error {
	return goerrors.Wrap(cause, CodeFatal, "keyring: "+op+": fatal store error").
		WithContext("op", op)
}
