// # Error Codes Reference
//
// User-facing messages for engine errors, each with a code callers can quote
// when reporting a problem.
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Unknown table: The requested domain or table does not exist
//	         Action: List domains and tables to find a valid name
//	         Matches: schema.ErrSchemaNotFound
//
//	SCH002 - Invalid schema: The table declaration is inconsistent
//	         Action: Fix the schema declaration and reload the catalog
//	         Matches: schema.ErrSchemaInvalid
//
// # Generation Errors (GEN001-GEN099)
//
//	GEN001 - Unknown error profile
//	         Action: Use one of none, light, moderate, heavy
//	         Matches: ErrUnknownErrorProfile
//
//	GEN002 - Invalid request: Row count, probability or other parameter out of range
//	         Action: Check the request parameters
//	         Matches: ErrInvalidRequest
//
//	GEN003 - Unknown geographic context
//	         Action: Use one of the listed geographic contexts
//	         Matches: geo.ErrUnknownContext
//
// # Linking and Versioning (LNK001, VER001)
//
//	LNK001 - Empty parent pool: A linked table references a primary with no rows
//	         Action: Generate at least one primary row
//	         Matches: ErrEmptyParentPool
//
//	VER001 - Invalid versioning state: SCD2 history is inconsistent
//	         Action: Report this as a bug with the seed used
//	         Matches: ErrInvalidVersioningState
//
// # Jobs (JOB001-JOB099)
//
//	JOB001 - Too many jobs: All generation slots are busy
//	         Action: Wait for running jobs to finish
//	         Matches: ErrTooManyJobs
//
//	JOB002 - Job not found
//	         Action: Check the job id
//	         Matches: ErrJobNotFound
//
//	JOB003 - Cancelled
//	         Matches: context.Canceled, "context canceled"
//
// # Rate Limiting and Fallback
//
//	RATE001 - Too many requests; Patterns: "rate limit"
//	ERR000  - Unknown error: check the logs for the technical error
//
// Sentinels are checked with errors.Is first; substring patterns second,
// case-insensitive, first match wins.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/synthedata/internal/geo"
	"github.com/JonMunkholm/synthedata/internal/schema"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorSentinel struct {
	target error
	msg    UserMessage
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorSentinels = []errorSentinel{
	{schema.ErrSchemaNotFound, UserMessage{
		Message: "The requested domain or table does not exist",
		Action:  "List domains and tables to find a valid name",
		Code:    "SCH001",
	}},
	{schema.ErrSchemaInvalid, UserMessage{
		Message: "The table declaration is inconsistent",
		Action:  "Fix the schema declaration and reload the catalog",
		Code:    "SCH002",
	}},
	{ErrUnknownErrorProfile, UserMessage{
		Message: "Unknown error profile",
		Action:  "Use one of none, light, moderate, heavy",
		Code:    "GEN001",
	}},
	{geo.ErrUnknownContext, UserMessage{
		Message: "Unknown geographic context",
		Action:  "Use one of the listed geographic contexts",
		Code:    "GEN003",
	}},
	{ErrInvalidRequest, UserMessage{
		Message: "Invalid generation request",
		Action:  "Check the request parameters",
		Code:    "GEN002",
	}},
	{ErrEmptyParentPool, UserMessage{
		Message: "A linked table references a primary table with no rows",
		Action:  "Generate at least one primary row",
		Code:    "LNK001",
	}},
	{ErrInvalidVersioningState, UserMessage{
		Message: "SCD2 history is inconsistent",
		Action:  "Report this as a bug together with the seed used",
		Code:    "VER001",
	}},
	{ErrTooManyJobs, UserMessage{
		Message: "All generation slots are busy",
		Action:  "Wait for running jobs to finish and try again",
		Code:    "JOB001",
	}},
	{ErrJobNotFound, UserMessage{
		Message: "Job not found",
		Action:  "Check the job id",
		Code:    "JOB002",
	}},
	{context.Canceled, cancelledMessage},
}

var cancelledMessage = UserMessage{
	Message: "The operation was cancelled",
	Action:  "Start it again if needed",
	Code:    "JOB003",
}

// errorPatterns catch errors that lost their sentinel, e.g. after crossing a
// process boundary as text.
var errorPatterns = []errorPattern{
	{pattern: "context canceled", msg: cancelledMessage},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range errorSentinels {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
