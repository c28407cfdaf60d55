package errors

import "errors"

// Alert engine error codes. The session gateway maps these onto error
// acknowledgments; nothing else should inspect message text.
const (
	CodeValidation        = 1001 // missing or malformed required fields
	CodeConflict          = 1002 // user already has a non-terminal alert
	CodeNotFound          = 1003 // unknown alert id
	CodeForbidden         = 1004 // wrong owner / unauthorized monitor
	CodeNoContacts        = 1005 // dispatch with zero active contacts
	CodeInvalidTransition = 1006 // operation illegal in current alert state
	CodeNotifier          = 1007 // delivery attempt failed
)

func Validation(message string) *Error { return WithCode(CodeValidation, message) }

func Validationf(format string, args ...interface{}) *Error {
	return WithCodef(CodeValidation, format, args...)
}

func NotFoundf(format string, args ...interface{}) *Error {
	return WithCodef(CodeNotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return WithCodef(CodeConflict, format, args...)
}

func Conflict(message string) *Error          { return WithCode(CodeConflict, message) }
func NotFound(message string) *Error          { return WithCode(CodeNotFound, message) }
func Forbidden(message string) *Error         { return WithCode(CodeForbidden, message) }
func NoContacts(message string) *Error        { return WithCode(CodeNoContacts, message) }
func InvalidTransition(message string) *Error { return WithCode(CodeInvalidTransition, message) }
func Notifier(message string) *Error          { return WithCode(CodeNotifier, message) }

func hasCode(err error, code int) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func IsValidation(err error) bool        { return hasCode(err, CodeValidation) }
func IsConflict(err error) bool          { return hasCode(err, CodeConflict) }
func IsNotFound(err error) bool          { return hasCode(err, CodeNotFound) }
func IsForbidden(err error) bool         { return hasCode(err, CodeForbidden) }
func IsNoContacts(err error) bool        { return hasCode(err, CodeNoContacts) }
func IsInvalidTransition(err error) bool { return hasCode(err, CodeInvalidTransition) }
func IsNotifier(err error) bool          { return hasCode(err, CodeNotifier) }
