// Package less compiles the LESS subset used by widget style templates into
// plain CSS: variables, nesting, mixins, media bubbling, arithmetic and the
// common colour functions.
package less

import (
	"errors"
	"fmt"
)

// ErrSyntax is wrapped by every compile error.
var ErrSyntax = errors.New("less: syntax error")

// Error reports a compile failure at a source line.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("less: line %d: %s", e.Line, e.Msg)
	}
	return "less: " + e.Msg
}

func (e *Error) Unwrap() error { return ErrSyntax }

func errorf(line int, format string, args ...any) error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}

const defaultMaxDepth = 64

// Compiler holds compile settings. The zero value is ready to use.
type Compiler struct {
	// MaxDepth bounds nested mixin expansion. Zero means 64.
	MaxDepth int
}

// New returns a Compiler with default settings.
func New() *Compiler {
	return &Compiler{MaxDepth: defaultMaxDepth}
}

// Compile converts LESS source to CSS with the default settings.
func Compile(src string) (string, error) {
	return New().Compile(src)
}

// Compile converts LESS source to CSS.
func (c *Compiler) Compile(src string) (string, error) {
	nodes, err := parse(src)
	if err != nil {
		return "", err
	}
	depth := c.MaxDepth
	if depth <= 0 {
		depth = defaultMaxDepth
	}
	ev := newEvaluator(depth)
	root := newScope(nil)
	ev.collect(nodes, root)
	if err := ev.evalBody(nodes, root, frame{}); err != nil {
		return "", err
	}
	return ev.render(), nil
}
