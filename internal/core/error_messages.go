// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Known sentinel errors are matched with errors.Is first; anything else falls
// back to case-insensitive substring patterns.
//
// # Type Errors (TYPE001-TYPE099)
//
//	TYPE001 - Unsupported type: The requested data type is not recognised
//	          Action: Choose one of the types listed by GET /api/types
//	          Sentinel: ErrUnsupportedType
//
//	TYPE002 - Incompatible data: Some values cannot be represented in that type
//	          Action: Pick a broader type such as Text, or fix the listed values
//	          Sentinel: ErrIncompatibleData
//
// # Dataset Errors (DS001-DS099, COL001-COL099)
//
//	DS001  - Dataset not found: No dataset with that id exists
//	         Action: Upload the file again
//	         Sentinel: ErrDatasetNotFound
//
//	COL001 - Column not found: The dataset has no column with that name
//	         Action: Check the column name against the dataset's columns
//	         Sentinel: ErrColumnNotFound
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large       Patterns: "file too large"
//	FILE002 - Invalid CSV          Patterns: "invalid csv"
//	FILE003 - Encoding error       Patterns: "encoding error"
//	FILE004 - No file              Patterns: "no file provided"
//	FILE005 - Empty file           Patterns: "empty file"
//	FILE006 - Unsupported format   Patterns: "unsupported file format"
//	FILE007 - Invalid spreadsheet  Patterns: "invalid spreadsheet"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy       Sentinel: ErrTooManyAnalyses
//	UPL004 - Request cancelled Sentinel: context.Canceled
//	UPL005 - Request timeout   Sentinel: context.DeadlineExceeded
//
// # Request Errors (REQ001)
//
//	REQ001 - Invalid request body  Patterns: "invalid request body"
//
// # Database Errors (DB004-DB006)
//
//	DB004 - Connection refused  Patterns: "connection refused"
//	DB005 - Connection reset    Patterns: "connection reset"
//	DB006 - Timeout             Patterns: "timeout"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check application logs
// for the original technical error when users report ERR000.
package core

import (
	"context"
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages are checked in order with errors.Is.
var sentinelMessages = []sentinelMessage{
	{ErrUnsupportedType, UserMessage{
		Message: "The requested data type is not supported",
		Action:  "Choose one of the listed data types",
		Code:    "TYPE001",
	}},
	{ErrIncompatibleData, UserMessage{
		Message: "Some values cannot be represented in the requested type",
		Action:  "Pick a broader type such as Text, or correct the listed values",
		Code:    "TYPE002",
	}},
	{ErrDatasetNotFound, UserMessage{
		Message: "Dataset not found",
		Action:  "Upload the file again",
		Code:    "DS001",
	}},
	{ErrColumnNotFound, UserMessage{
		Message: "Column not found in this dataset",
		Action:  "Check the column name against the dataset's columns",
		Code:    "COL001",
	}},
	{ErrTooManyAnalyses, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or check your connection",
		Code:    "UPL005",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first match wins, so specific patterns come before general ones.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE007)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent quoting",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or Excel file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "Only .csv and .xlsx files are supported",
			Action:  "Export the data as CSV or Excel and upload again",
			Code:    "FILE006",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "The spreadsheet could not be read",
			Action:  "Re-save the workbook in Excel and upload again",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// Request Errors (REQ001)
	// =========================================================================
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request body is not valid",
			Action:  `Send JSON of the form {"column": "...", "new_type": "..."}`,
			Code:    "REQ001",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB006)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try uploading a smaller file or try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
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
//
// Example:
//
//	_, err := ds.Override("age", "Money", nil)
//	msg := MapError(err)
//	// msg.Code == "TYPE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
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

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
