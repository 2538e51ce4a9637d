package engine

import (
	"errors"
	"fmt"

	"zenort/pkg/value"
)

// Diagnostic is an error tied to a position in a script. Check and run both
// report it as JSON.
type Diagnostic struct {
	Type     string `json:"type"` // "error" or "panic"
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line,omitempty"`
	Col      int    `json:"col,omitempty"`
	Slot     string `json:"slot,omitempty"`
	Err      error  `json:"-"`
}

func (d Diagnostic) Error() string {
	loc := d.Filename
	if loc == "" {
		loc = "<script>"
	}
	if d.Slot != "" {
		return fmt.Sprintf("%s:%d:%d: [%s] %s", loc, d.Line, d.Col, d.Slot, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", loc, d.Line, d.Col, d.Message)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// ErrorType is the type name a script sees when it catches the diagnostic.
func (d Diagnostic) ErrorType() string {
	if d.Type == "panic" {
		return value.TypePanic
	}
	if d.Err != nil {
		var te interface{ ErrorType() string }
		if errors.As(d.Err, &te) {
			return te.ErrorType()
		}
	}
	return value.TypeRuntimeError
}

func diagnosticAt(node *Node, err error) Diagnostic {
	return Diagnostic{
		Type:     "error",
		Message:  err.Error(),
		Filename: node.Filename,
		Line:     node.Line,
		Col:      node.Col,
		Slot:     node.Name,
		Err:      err,
	}
}

func validationError(node *Node, slot, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Type:     "error",
		Message:  "validation error: " + fmt.Sprintf(format, args...),
		Filename: node.Filename,
		Line:     node.Line,
		Col:      node.Col,
		Slot:     slot,
	}
}
