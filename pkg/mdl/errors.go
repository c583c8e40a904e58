package mdl

import (
	"errors"
	"fmt"
)

// MDL format errors.
var (
	ErrBinaryModel   = errors.New("binary model: decompile before parsing")
	ErrStructure     = errors.New("malformed model structure")
	ErrDuplicateNode = errors.New("duplicate node")
	ErrUnknownKind   = errors.New("unknown node kind")
)

// StructuralError reports input that cannot be segmented into blocks, such
// as a node opened inside another node. Line is the zero-based source line.
type StructuralError struct {
	Line int
	Msg  string
	Err  error // optional cause, such as ErrUnknownKind
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line+1, e.Msg)
}

// Unwrap lets errors.Is match ErrStructure and the cause.
func (e *StructuralError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrStructure, e.Err}
	}
	return []error{ErrStructure}
}

func structuralf(line int, format string, args ...any) error {
	return &StructuralError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Warning is a recoverable data problem. Line is -1 when the problem is not
// tied to a source line (for example during export).
type Warning struct {
	Line    int
	Message string
}

func (w Warning) String() string {
	if w.Line < 0 {
		return w.Message
	}
	return fmt.Sprintf("line %d: %s", w.Line+1, w.Message)
}
