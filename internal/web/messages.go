package web

// messages.go maps technical errors to user-facing messages with codes
// support staff can look up.
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Dataset not found
//	         Patterns: "unknown dataset"
//	TBL002 - Column not found or not sortable/filterable
//	         Patterns: "unknown column"
//	TBL003 - Row no longer in view
//	         Patterns: "invalid row"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Table view expired
//	         Patterns: "table instance not found"
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Data source unreachable
//	         Patterns: "connection refused", "connect to database"
//	SRC002 - Query timed out
//	         Patterns: "deadline exceeded", "timeout"
//	SRC003 - Dataset query failed
//	         Patterns: "query:"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export failed
//	         Patterns: "export failed"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage is user-friendly error information with a support code.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Table errors
	{
		pattern: "unknown dataset",
		msg: UserMessage{
			Message: "Dataset not found",
			Action:  "Pick a dataset from the index page",
			Code:    "TBL001",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "This column cannot be sorted or filtered",
			Action:  "Reload the table and try again",
			Code:    "TBL002",
		},
	},
	{
		pattern: "invalid row",
		msg: UserMessage{
			Message: "That row is no longer in the view",
			Action:  "Reload the table and try again",
			Code:    "TBL003",
		},
	},

	// Session errors
	{
		pattern: "table instance not found",
		msg: UserMessage{
			Message: "This table view has expired",
			Action:  "Open the dataset again from the index page",
			Code:    "SES001",
		},
	},

	// Source errors. Timeouts come first since query errors often wrap them.
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the data source",
			Action:  "Please try again in a few moments",
			Code:    "SRC001",
		},
	},
	{
		pattern: "connect to database",
		msg: UserMessage{
			Message: "Unable to connect to the data source",
			Action:  "Please try again in a few moments",
			Code:    "SRC001",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Loading the dataset timed out",
			Action:  "Please try again later",
			Code:    "SRC002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Loading the dataset timed out",
			Action:  "Please try again later",
			Code:    "SRC002",
		},
	},
	{
		pattern: "query:",
		msg: UserMessage{
			Message: "The dataset query failed",
			Action:  "Check the dataset definition or contact support",
			Code:    "SRC003",
		},
	},

	// Export errors
	{
		pattern: "export failed",
		msg: UserMessage{
			Message: "Failed to export data",
			Action:  "Please try again",
			Code:    "EXP001",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unmatched
// errors map to ERR000; nil maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
