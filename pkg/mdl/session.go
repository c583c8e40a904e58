package mdl

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session carries the state of one import or export run: options, the
// material cache, the logger and the accumulated warnings. A session must
// not be shared between concurrent parses; run one session per model.
type Session struct {
	ID       uuid.UUID
	Options  Options
	Mtrs     *MtrCache
	Log      *zap.Logger
	Warnings []Warning

	// DefaultName names the model when the file lacks a newmodel line.
	DefaultName string
}

// NewSession creates a session. A nil logger discards log output.
func NewSession(opts Options, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.New()
	return &Session{
		ID:          id,
		Options:     opts,
		Log:         log.With(zap.String("session", id.String())),
		DefaultName: "unnamed",
	}
}

// session returns s, or a throwaway session with default options.
func session(s *Session) *Session {
	if s == nil {
		return NewSession(DefaultOptions(), nil)
	}
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	return s
}

func (s *Session) warnf(line int, format string, args ...any) {
	w := Warning{Line: line, Message: fmt.Sprintf(format, args...)}
	s.Warnings = append(s.Warnings, w)
	if line >= 0 {
		s.Log.Warn(w.Message, zap.Int("line", line+1))
	} else {
		s.Log.Warn(w.Message)
	}
}
