// Package errors defines the coded errors canvasport reports.
//
// Every failure that can reach a user carries a [Code]. The dispatcher puts
// the code in "<op>-error" responses, the HTTP server maps it to a status,
// and the CLI maps it to an exit code. [Error.At] ties a failure to the
// bundle node it happened on.
//
// # Error Codes
//
// Property codes are absorbed where they happen and only logged:
//   - PROPERTY_APPLY, FONT_LOAD, ASSET_RESOLUTION
//
// Node codes drop the node they occur on, along with its subtree, and are
// counted in the operation's stats:
//   - NODE_CONSTRUCTION, UNSUPPORTED_KIND
//
// Under the reject policy the importer escalates UNSUPPORTED_KIND and aborts.
//
// Every other code stops the operation and reaches the caller, for example
// EMPTY_SELECTION, EMPTY_CONTAINER and INVALID_MESSAGE. See [ScopeOf].
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptySelection, "nothing selected")
//	if errors.Is(err, errors.ErrCodeEmptySelection) {
//	    // Report to the UI
//	}
//
//	err := errors.Wrap(errors.ErrCodeNodeConstruction, cause, "resize").At(node.ID)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidMessage Code = "INVALID_MESSAGE"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Empty targets
	ErrCodeEmptySelection Code = "EMPTY_SELECTION"
	ErrCodeEmptyContainer Code = "EMPTY_CONTAINER"

	// Per-node recoverable errors
	ErrCodeUnsupportedKind  Code = "UNSUPPORTED_KIND"
	ErrCodeAssetResolution  Code = "ASSET_RESOLUTION"
	ErrCodeFontLoad         Code = "FONT_LOAD"
	ErrCodePropertyApply    Code = "PROPERTY_APPLY"
	ErrCodeNodeConstruction Code = "NODE_CONSTRUCTION"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeBundleNotFound Code = "BUNDLE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Scope is how far a failure with a given code propagates.
type Scope int

const (
	// ScopeProperty failures are logged and the rest of the node is built.
	ScopeProperty Scope = iota
	// ScopeNode failures drop one node and its subtree.
	ScopeNode
	// ScopeOperation failures end the export or import.
	ScopeOperation
)

var scopes = map[Code]Scope{
	ErrCodePropertyApply:    ScopeProperty,
	ErrCodeFontLoad:         ScopeProperty,
	ErrCodeAssetResolution:  ScopeProperty,
	ErrCodeNodeConstruction: ScopeNode,
	ErrCodeUnsupportedKind:  ScopeNode,
}

// ScopeOf returns the scope of code. Unlisted codes are operation-wide.
func ScopeOf(code Code) Scope {
	if s, ok := scopes[code]; ok {
		return s
	}
	return ScopeOperation
}

// Error is a coded failure, optionally tied to the bundle or host node it
// happened on.
type Error struct {
	Code    Code
	Message string
	Node    string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Node != "" {
		fmt.Fprintf(&b, " [%s]", e.Node)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// At records the id of the node the error happened on and returns e.
func (e *Error) At(node string) *Error {
	e.Node = node
	return e
}

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message and cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := as(err); ok {
		return e.Code
	}
	return ""
}

// NodeOf returns the node id recorded by the innermost [Error.At] call in
// err's chain, or "".
func NodeOf(err error) string {
	node := ""
	for err != nil {
		if e, ok := err.(*Error); ok && e.Node != "" {
			node = e.Node
		}
		err = errors.Unwrap(err)
	}
	return node
}

// UserMessage drops the code prefix for display in CLI output and error
// responses. Other errors are returned as-is.
func UserMessage(err error) string {
	e, ok := as(err)
	switch {
	case !ok:
		return err.Error()
	case e.Cause != nil:
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Recoverable reports whether err only costs a single property of a node.
func Recoverable(err error) bool {
	code := GetCode(err)
	return code != "" && ScopeOf(code) == ScopeProperty
}

func as(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
