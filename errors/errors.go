// Package errors defines the unified error taxonomy shared by every
// layer of the sync engine, so host bindings only ever have to
// classify one set of sentinels regardless of which package raised
// them.
package errors

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories from the sync engine's error
// taxonomy. Every exported error from this module wraps a Kind so
// callers can classify failures with errors.Is/As without string
// matching.
type Kind int

const (
	// KindParseKey means a secret/public key string was not in age format.
	KindParseKey Kind = iota
	// KindEncrypt means a cryptographic encryption operation failed.
	KindEncrypt
	// KindDecrypt means a cryptographic decryption operation failed
	// (wrong passphrase, tampered blob, wrong recipient).
	KindDecrypt
	// KindInvalidArg means a caller-supplied argument was invalid:
	// empty filename, unknown environment, malformed proxy URL, or an
	// un-mappable relative path.
	KindInvalidArg
	// KindIO means a local filesystem operation failed.
	KindIO
	// KindUnauthorized means the server rejected the bearer token.
	KindUnauthorized
	// KindExpiredToken means the cached S3 temp credential expired;
	// retryable by the caller.
	KindExpiredToken
	// KindRequest means a transport-level HTTP failure occurred.
	KindRequest
	// KindSerde means a JSON request/response failed to (de)serialize.
	KindSerde
	// KindCustom wraps a server-sent message not otherwise mapped.
	KindCustom
	// KindCancelled means a global cancel was observed mid-operation.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindParseKey:
		return "ParseKey"
	case KindEncrypt:
		return "Encrypt"
	case KindDecrypt:
		return "Decrypt"
	case KindInvalidArg:
		return "InvalidArg"
	case KindIO:
		return "Io"
	case KindUnauthorized:
		return "Unauthorized"
	case KindExpiredToken:
		return "ExpiredToken"
	case KindRequest:
		return "Request"
	case KindSerde:
		return "Serde"
	case KindCustom:
		return "Custom"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type carried across every package
// boundary in the engine.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, errors.ParseKey) etc. match regardless of
// message/wrapped-error payload, comparing only on Kind.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return te.Kind == e.Kind && te.Err == nil && te.Message == ""
	}
	return false
}

// New builds a sentinel Error of the given Kind usable as an
// errors.Is comparison target, e.g. errors.Is(err, errors.Cancelled).
func New(k Kind) *Error { return &Error{Kind: k} }

// Wrap attaches Kind to an underlying error, preserving it via Unwrap.
func Wrap(k Kind, err error) *Error { return &Error{Kind: k, Err: err} }

// Wrapf attaches Kind and a formatted message to an underlying error.
func Wrapf(k Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), Err: err}
}

// Msg builds an Error carrying only a message (no wrapped cause),
// e.g. for server-sent Custom(message) errors.
func Msg(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Sentinels usable directly with errors.Is.
var (
	ParseKey     = New(KindParseKey)
	Encrypt      = New(KindEncrypt)
	Decrypt      = New(KindDecrypt)
	InvalidArg   = New(KindInvalidArg)
	IO           = New(KindIO)
	Unauthorized = New(KindUnauthorized)
	ExpiredToken = New(KindExpiredToken)
	Request      = New(KindRequest)
	Serde        = New(KindSerde)
	Cancelled    = New(KindCancelled)
)

// FromServerMessage maps a non-null "message" field from a
// control-plane response into the taxonomy, per spec.md's §4.2
// mapping table.
func FromServerMessage(message string) error {
	switch message {
	case "Unauthorized":
		return Unauthorized
	case "Internal Server Error":
		return Msg(KindCustom, "Server Error")
	default:
		return Msg(KindCustom, "%s", message)
	}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, k Kind) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Kind == k {
			return true
		}
		err = e.Err
	}
	return false
}
