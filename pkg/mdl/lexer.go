package mdl

import (
	"math"
	"strconv"
	"strings"
)

// Line is one non-empty, non-comment source line split into tokens.
// Index is the zero-based line number in the original text.
type Line struct {
	Index  int
	Tokens []string
}

// Label returns the lower-cased first token.
func (l Line) Label() string {
	return strings.ToLower(l.Tokens[0])
}

// Arg returns token i (1-based after the label), or "" when missing.
func (l Line) Arg(i int) string {
	if i < len(l.Tokens) {
		return l.Tokens[i]
	}
	return ""
}

// Tokenize splits text into token lines, dropping blank lines and lines
// whose first token starts with '#'.
func Tokenize(text string) []Line {
	var lines []Line
	for i, raw := range strings.Split(text, "\n") {
		tokens := strings.Fields(raw)
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}
		lines = append(lines, Line{Index: i, Tokens: tokens})
	}
	return lines
}

// IsNumber reports whether s parses as a finite float.
func IsNumber(s string) bool {
	_, ok := parseFloat(s)
	return ok
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToFloat parses s, returning 0 on malformed input.
func ToFloat(s string) float32 {
	f, _ := parseFloat(s)
	return float32(f)
}

// ToInt parses s through a float and truncates, since some producers write
// integers as "3.0".
func ToInt(s string) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	f, _ := parseFloat(s)
	return int(f)
}

// ToBool is true iff ToInt(s) >= 1.
func ToBool(s string) bool {
	return ToInt(s) >= 1
}

// Identifier lower-cases a name and maps the "null" sentinel to "".
func Identifier(s string) string {
	s = strings.ToLower(s)
	if s == "null" {
		return ""
	}
	return s
}

// cursor walks a slice of token lines.
type cursor struct {
	lines []Line
	pos   int
}

func newCursor(lines []Line) *cursor {
	return &cursor{lines: lines}
}

func (c *cursor) done() bool {
	return c.pos >= len(c.lines)
}

func (c *cursor) remaining() int {
	return len(c.lines) - c.pos
}

// peek returns the current line without consuming it.
func (c *cursor) peek() (Line, bool) {
	if c.done() {
		return Line{}, false
	}
	return c.lines[c.pos], true
}

// advance consumes and returns the current line.
func (c *cursor) advance() (Line, bool) {
	ln, ok := c.peek()
	if ok {
		c.pos++
	}
	return ln, ok
}

// takeUntil consumes lines up to, but not including, the first line for
// which stop returns true. The stopping line stays current.
func (c *cursor) takeUntil(stop func(Line) bool) []Line {
	start := c.pos
	for !c.done() && !stop(c.lines[c.pos]) {
		c.pos++
	}
	return c.lines[start:c.pos]
}

// labelIs matches lines by lower-cased first token.
func labelIs(labels ...string) func(Line) bool {
	return func(l Line) bool {
		label := l.Label()
		for _, want := range labels {
			if label == want {
				return true
			}
		}
		return false
	}
}

func floatArgs(args []string, n int) []float32 {
	out := make([]float32, n)
	for i := 0; i < n && i < len(args); i++ {
		out[i] = ToFloat(args[i])
	}
	return out
}
