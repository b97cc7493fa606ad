package stream

import (
	goerrors "github.com/agilira/go-errors"
)

// Error codes surfaced by this package. CodeCorrupt covers header/chunk
// framing and MAC failures, CodeIO covers underlying reader/writer
// failures, CodeCrypto covers key-pair mismatches during header parsing.
const (
	CodeCorrupt goerrors.ErrorCode = "stream_corrupt"
	CodeIO      goerrors.ErrorCode = "stream_io"
	CodeCrypto  goerrors.ErrorCode = "stream_crypto"
)

// Error is the error type this package returns on failure.
type Error = goerrors.Error

func newCorrupt(op, reason string) *Error {
	return goerrors.NewWithField(CodeCorrupt, "stream: "+op+": "+reason, "op", op)
}

func newIO(op string, cause error) *Error {
	return goerrors.Wrap(cause, CodeIO, "stream: "+op+": i/o error").
		WithContext("op", op)
}

func newCrypto(op, reason string) *Error {
	return goerrors.NewWithField(CodeCrypto, "stream: "+op+": "+reason, "op", op)
}
