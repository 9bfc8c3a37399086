package errors

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorType is the category of failure. The value doubles as its label
// in DetailedString.
type ErrorType string

const (
	ErrorTypeConfig     ErrorType = "config"     // missing or invalid configuration
	ErrorTypeValidation ErrorType = "validation" // bad user input such as an unknown diagram kind
	ErrorTypeFileSystem ErrorType = "filesystem" // file I/O
	ErrorTypeParse      ErrorType = "parse"      // one source file could not be extracted
	ErrorTypeExternal   ErrorType = "external"   // the graph-layout executable failed
	ErrorTypeStorage    ErrorType = "storage"    // analysis store failures
	ErrorTypeInternal   ErrorType = "internal"   // unexpected internal state
)

// Severity ranks how far an error propagates
type Severity int

const (
	SeverityLow      Severity = iota // degraded output, run continues
	SeverityMedium                   // one file or render lost
	SeverityHigh                     // the current command fails
	SeverityCritical                 // the process cannot continue
)

var severityNames = [...]string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "UNKNOWN"
	}
	return severityNames[s]
}

// defaultSeverity is what the typed constructors assign
var defaultSeverity = map[ErrorType]Severity{
	ErrorTypeConfig:     SeverityCritical,
	ErrorTypeValidation: SeverityHigh,
	ErrorTypeFileSystem: SeverityHigh,
	ErrorTypeParse:      SeverityMedium,
	ErrorTypeExternal:   SeverityMedium,
	ErrorTypeStorage:    SeverityHigh,
	ErrorTypeInternal:   SeverityCritical,
}

// Error is a categorized error with optional cause and key/value context
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace string
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Type, so errors.Is(err, &Error{Type: t})
// tests the category
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Type == t.Type
}

// WithContext attaches key=value and returns e for chaining
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsFatal reports whether the process cannot continue
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// DetailedString renders the error with its cause, sorted context and
// captured stack
func (e *Error) DetailedString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] [%s] %s\n", e.Severity, strings.ToUpper(string(e.Type)), e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&sb, "Caused by: %v\n", e.Cause)
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("Context:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %v\n", k, e.Context[k])
		}
	}

	if e.StackTrace != "" {
		fmt.Fprintf(&sb, "Stack trace:\n%s\n", e.StackTrace)
	}
	return sb.String()
}

// stackDepth bounds the frames kept in StackTrace
const stackDepth = 10

func captureStackTrace(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&sb, "  %s:%d %s\n", f.File, f.Line, f.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

func build(errType ErrorType, severity Severity, cause error, message string) *Error {
	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Cause:      cause,
		Context:    make(map[string]interface{}),
		StackTrace: captureStackTrace(3),
	}
}

// New creates an error without a cause
func New(errType ErrorType, severity Severity, message string) *Error {
	return build(errType, severity, nil, message)
}

// Wrap attaches a category to err. Wrap(nil, ...) is nil.
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}
	return build(errType, severity, err, message)
}

func typed(errType ErrorType, cause error, message string) *Error {
	return build(errType, defaultSeverity[errType], cause, message)
}

func ConfigError(message string) *Error {
	return typed(ErrorTypeConfig, nil, message)
}

func ConfigErrorf(format string, args ...interface{}) *Error {
	return typed(ErrorTypeConfig, nil, fmt.Sprintf(format, args...))
}

func ValidationErrorf(format string, args ...interface{}) *Error {
	return typed(ErrorTypeValidation, nil, fmt.Sprintf(format, args...))
}

// FileSystemError wraps an I/O failure
func FileSystemError(err error, message string) *Error {
	return typed(ErrorTypeFileSystem, err, message)
}

// ParseError wraps a parser failure for one file. Parse errors exclude the
// file from the run and are never fatal.
func ParseError(err error, message string) *Error {
	return typed(ErrorTypeParse, err, message)
}

func ParseErrorf(format string, args ...interface{}) *Error {
	return typed(ErrorTypeParse, nil, fmt.Sprintf(format, args...))
}

// ExternalError wraps a failure of the graph-layout executable
func ExternalError(err error, message string) *Error {
	return typed(ErrorTypeExternal, err, message)
}

func ExternalErrorf(err error, format string, args ...interface{}) *Error {
	return typed(ErrorTypeExternal, err, fmt.Sprintf(format, args...))
}

// StorageError wraps an analysis store failure
func StorageError(err error, message string) *Error {
	return typed(ErrorTypeStorage, err, message)
}

// InternalError wraps a failure that indicates a bug or broken install,
// such as a grammar that cannot be loaded
func InternalError(err error, message string) *Error {
	return typed(ErrorTypeInternal, err, message)
}

func InternalErrorf(format string, args ...interface{}) *Error {
	return typed(ErrorTypeInternal, nil, fmt.Sprintf(format, args...))
}

// IsFatal reports whether err is a critical *Error
func IsFatal(err error) bool {
	e, ok := err.(*Error)
	return ok && e.IsFatal()
}

// GetSeverity returns the severity of err. Foreign errors count as medium.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityLow
	}
	if e, ok := err.(*Error); ok {
		return e.Severity
	}
	return SeverityMedium
}

// GetType returns the category of err. Foreign errors count as internal.
func GetType(err error) ErrorType {
	if e, ok := err.(*Error); ok {
		return e.Type
	}
	return ErrorTypeInternal
}
