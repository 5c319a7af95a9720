package batch

import "fmt"

// ErrorKind classifies why a document failed.
type ErrorKind string

const (
	KindExtract ErrorKind = "extract"
	KindNoMatch ErrorKind = "no_match"
	KindPanic   ErrorKind = "panic"
)

// MsgNoMatch is recorded for documents where every stage ran but neither
// field was found.
const MsgNoMatch = "No account number or customer name found"

// DocumentError is a failure confined to one document.
type DocumentError struct {
	Kind  ErrorKind
	File  string
	Cause error
}

func (e *DocumentError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.File, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.File, e.Kind, e.Cause)
}

func (e *DocumentError) Unwrap() error { return e.Cause }

// Message is the text written to the report's error column.
func (e *DocumentError) Message() string {
	switch {
	case e.Kind == KindNoMatch:
		return MsgNoMatch
	case e.Cause != nil:
		return e.Cause.Error()
	default:
		return string(e.Kind)
	}
}
