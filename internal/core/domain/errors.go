package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError is a command-level error with a stable code.
//
// Prefix is the first word of the RESP error reply ("ERR", "WRONGTYPE").
// Two DomainErrors match with errors.Is when their codes are equal,
// regardless of message.
type DomainError struct {
	Code    string // Stable identifier (e.g., "MK-TYPE-4000")
	Prefix  string // RESP error prefix
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Reply returns the text of the RESP error reply, without the leading '-'.
func (e *DomainError) Reply() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return e.Prefix + " " + msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the "ERR" prefix.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Prefix:  "ERR",
		Message: message,
	}
}

// WithPrefix returns a copy of the error with a different RESP prefix.
func (e *DomainError) WithPrefix(prefix string) *DomainError {
	c := *e
	c.Prefix = prefix
	return &c
}

// WithMessage returns a copy of the error with a different message.
func (e *DomainError) WithMessage(message string) *DomainError {
	c := *e
	c.Message = message
	return &c
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return code == "" || de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Command errors, surfaced to clients as RESP error replies.
// ============================================================================

var (
	// ErrWrongType indicates an operation against a key of another type.
	ErrWrongType = NewDomainError("MK-TYPE-4000",
		"Operation against a key holding the wrong kind of value").WithPrefix("WRONGTYPE")

	// ErrWrongArgs indicates a bad argument count. Use WrongArgs.
	ErrWrongArgs = NewDomainError("MK-ARG-4001", "wrong number of arguments")

	// ErrUnknownCommand indicates an unregistered command. Use UnknownCommand.
	ErrUnknownCommand = NewDomainError("MK-CMD-4040", "unknown command")

	// ErrInvalidArgument indicates a null or otherwise unusable argument.
	ErrInvalidArgument = NewDomainError("MK-ARG-4000", "invalid argument")

	// ErrSyntax indicates unrecognized command options.
	ErrSyntax = NewDomainError("MK-ARG-4002", "syntax error")

	// ErrNotInteger indicates a value that does not parse as int64.
	ErrNotInteger = NewDomainError("MK-ARG-4003", "value is not an integer or out of range")

	// ErrNotFloat indicates a value that does not parse as a float.
	ErrNotFloat = NewDomainError("MK-ARG-4004", "value is not a valid float")

	// ErrOverflow indicates an increment that would overflow int64.
	ErrOverflow = NewDomainError("MK-ARG-4005", "increment or decrement would overflow")

	// ErrNoSuchKey indicates a missing source key (RENAME).
	ErrNoSuchKey = NewDomainError("MK-KEY-4040", "no such key")

	// ErrDBIndexOutOfRange indicates a SELECT beyond the configured databases.
	ErrDBIndexOutOfRange = NewDomainError("MK-DB-4000", "DB index is out of range")

	// ErrInvalidDBIndex indicates a SELECT argument that is not an integer.
	ErrInvalidDBIndex = NewDomainError("MK-DB-4001", "invalid DB index")
)

// ============================================================================
// Server errors.
// ============================================================================

var (
	// ErrRateLimited indicates the session exceeded its command rate.
	ErrRateLimited = NewDomainError("MK-SYS-4290", "rate limit exceeded")

	// ErrMaxClients indicates the connection limit was reached.
	ErrMaxClients = NewDomainError("MK-SYS-5030", "max number of clients reached")

	// ErrInternal indicates a recovered handler failure.
	ErrInternal = NewDomainError("MK-SYS-5000", "internal error")
)

// ErrValueRemoved is returned by a collection that was detached from its
// database. Callers fetch the key again and retry; it never reaches
// clients.
var ErrValueRemoved = NewDomainError("MK-VAL-4100", "value removed from keyspace")

// WrongArgs returns ErrWrongArgs naming the command.
func WrongArgs(cmd string) *DomainError {
	return ErrWrongArgs.WithMessage("wrong number of arguments for '" + strings.ToLower(cmd) + "' command")
}

// UnknownCommand returns ErrUnknownCommand naming the command.
func UnknownCommand(cmd string) *DomainError {
	return ErrUnknownCommand.WithMessage("unknown command '" + ClientText(cmd) + "'")
}

// UnknownSubcommand returns ErrSyntax naming the subcommand of cmd.
func UnknownSubcommand(cmd, sub string) *DomainError {
	return ErrSyntax.WithDetails("unknown " + cmd + " subcommand '" + ClientText(sub) + "'")
}

// maxClientText bounds client input quoted in error replies.
const maxClientText = 128

// ClientText prepares client bytes for quoting in an error reply: it is
// cut to maxClientText bytes and CR or LF become spaces.
func ClientText(s string) string {
	if len(s) > maxClientText {
		s = s[:maxClientText]
	}
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}
