package less

import (
	"regexp"
	"strings"
)

type node interface {
	nodeLine() int
}

type declNode struct {
	prop  string
	value string
	line  int
}

type varNode struct {
	name  string
	value string
	line  int
}

// callNode is a mixin call such as `.rounded(4px) !important` or `#ns > .m;`.
type callNode struct {
	path      []string
	args      []string
	important bool
	line      int
}

type param struct {
	name    string
	def     string
	hasDef  bool
	literal string
}

type mixinDefNode struct {
	name   string
	params []param
	body   []node
	line   int
}

type ruleNode struct {
	selector string
	body     []node
	line     int
}

type atKind int

const (
	atMedia atKind = iota
	atSupports
	atKeyframes
	atDirective
)

type atRuleNode struct {
	kind   atKind
	header string
	body   []node
	line   int
}

// hoistNode is an @import/@charset/@namespace statement printed before any
// rule.
type hoistNode struct {
	text string
	line int
}

func (n *declNode) nodeLine() int     { return n.line }
func (n *varNode) nodeLine() int      { return n.line }
func (n *callNode) nodeLine() int     { return n.line }
func (n *mixinDefNode) nodeLine() int { return n.line }
func (n *ruleNode) nodeLine() int     { return n.line }
func (n *atRuleNode) nodeLine() int   { return n.line }
func (n *hoistNode) nodeLine() int    { return n.line }

var (
	variableDecl = regexp.MustCompile(`(?s)^@([A-Za-z0-9_-]+)\s*:\s*(.*)$`)
	mixinCall    = regexp.MustCompile(`(?s)^((?:[.#][A-Za-z0-9_-]+\s*>?\s*)+)(?:\((.*)\))?\s*(!\s*important)?\s*$`)
	mixinSegment = regexp.MustCompile(`[.#][A-Za-z0-9_-]+`)
	mixinDef     = regexp.MustCompile(`(?s)^([.#][A-Za-z0-9_-]+)\s*\((.*)\)\s*$`)
	mixinGuard   = regexp.MustCompile(`(?s)^[.#][A-Za-z0-9_-]+\s*\(.*\)\s*when\b`)
	keyframesAt  = regexp.MustCompile(`^@(-[a-z]+-)?keyframes\b`)
	hoistAt      = regexp.MustCompile(`^@(import|charset|namespace)\b`)
)

type parser struct {
	src string
	pos int
}

func parse(src string) ([]node, error) {
	p := &parser{src: stripComments(src)}
	return p.parseBlock(false)
}

func (p *parser) line(offset int) int {
	if offset > len(p.src) {
		offset = len(p.src)
	}
	return strings.Count(p.src[:offset], "\n") + 1
}

func (p *parser) parseBlock(nested bool) ([]node, error) {
	var nodes []node
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			if nested {
				return nil, errorf(p.line(p.pos), "missing closing brace")
			}
			return nodes, nil
		}
		if p.src[p.pos] == '}' {
			if !nested {
				return nil, errorf(p.line(p.pos), "unexpected closing brace")
			}
			return nodes, nil
		}

		start := p.pos
		stop, err := p.scanSegment()
		if err != nil {
			return nil, err
		}
		text := strings.TrimSpace(p.src[start:p.pos])
		line := p.line(start)

		switch stop {
		case '{':
			p.pos++
			body, err := p.parseBlock(true)
			if err != nil {
				return nil, err
			}
			p.pos++ // closing brace
			n, err := classifyBlock(text, body, line)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case ';':
			p.pos++
			fallthrough
		default:
			if text == "" {
				continue
			}
			n, err := classifyStatement(text, line)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
	}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', ';':
			p.pos++
		default:
			return
		}
	}
}

// scanSegment advances to the next ';', '{' or '}' outside strings, parens
// and @{...} interpolations and returns it (0 at end of input).
func (p *parser) scanSegment() (byte, error) {
	depth := 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '"' || c == '\'':
			end := skipString(p.src, p.pos)
			if end < 0 {
				return 0, errorf(p.line(p.pos), "unterminated string")
			}
			p.pos = end
			continue
		case c == '@' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '{':
			end := strings.IndexByte(p.src[p.pos:], '}')
			if end < 0 {
				return 0, errorf(p.line(p.pos), "unterminated interpolation")
			}
			p.pos += end + 1
			continue
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == ';' || c == '{' || c == '}'):
			return c, nil
		}
		p.pos++
	}
	return 0, nil
}

// skipString returns the offset just past the string starting at start, or
// -1 when it is not terminated.
func skipString(src string, start int) int {
	quote := src[start]
	for idx := start + 1; idx < len(src); idx++ {
		switch src[idx] {
		case '\\':
			idx++
		case quote:
			return idx + 1
		case '\n':
			return -1
		}
	}
	return -1
}

func classifyStatement(text string, line int) (node, error) {
	if hoistAt.MatchString(text) {
		return &hoistNode{text: text, line: line}, nil
	}
	if m := variableDecl.FindStringSubmatch(text); m != nil {
		return &varNode{name: m[1], value: strings.TrimSpace(m[2]), line: line}, nil
	}
	if text[0] == '.' || text[0] == '#' {
		return parseCall(text, line)
	}
	if text[0] == '@' && !strings.HasPrefix(text, "@{") {
		return nil, errorf(line, "unsupported at-rule %q", firstWord(text))
	}
	colon := indexTopLevel(text, ':')
	if colon <= 0 {
		return nil, errorf(line, "expected declaration, got %q", text)
	}
	return &declNode{
		prop:  strings.TrimSpace(text[:colon]),
		value: strings.TrimSpace(text[colon+1:]),
		line:  line,
	}, nil
}

func parseCall(text string, line int) (node, error) {
	m := mixinCall.FindStringSubmatch(text)
	if m == nil {
		return nil, errorf(line, "malformed mixin call %q", text)
	}
	call := &callNode{
		path:      mixinSegment.FindAllString(m[1], -1),
		important: m[3] != "",
		line:      line,
	}
	if strings.TrimSpace(m[2]) != "" {
		call.args = splitArgs(m[2])
	}
	return call, nil
}

func classifyBlock(header string, body []node, line int) (node, error) {
	switch {
	case header == "":
		return nil, errorf(line, "block without selector")
	case strings.HasPrefix(header, "@media"):
		return &atRuleNode{kind: atMedia, header: strings.TrimSpace(header[len("@media"):]), body: body, line: line}, nil
	case strings.HasPrefix(header, "@supports"):
		return &atRuleNode{kind: atSupports, header: strings.TrimSpace(header[len("@supports"):]), body: body, line: line}, nil
	case keyframesAt.MatchString(header):
		return &atRuleNode{kind: atKeyframes, header: collapseSpace(header), body: body, line: line}, nil
	case header[0] == '@' && !strings.HasPrefix(header, "@{"):
		return &atRuleNode{kind: atDirective, header: collapseSpace(header), body: body, line: line}, nil
	case mixinGuard.MatchString(header):
		return nil, errorf(line, "guarded mixins are not supported")
	}
	if m := mixinDef.FindStringSubmatch(header); m != nil && isParamList(m[2]) {
		return &mixinDefNode{name: m[1], params: parseParams(m[2]), body: body, line: line}, nil
	}
	return &ruleNode{selector: header, body: body, line: line}, nil
}

// isParamList tells a mixin parameter list apart from selector syntax such
// as `.a:not(.b)`; the mixin name pattern already excludes the colon, so
// only the nested text needs checking.
func isParamList(inner string) bool {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return true
	}
	for _, raw := range splitArgs(inner) {
		arg := strings.TrimSpace(raw)
		if arg == "" || strings.HasPrefix(arg, ".") && arg != "..." {
			return false
		}
	}
	return true
}

func parseParams(inner string) []param {
	var params []param
	for _, raw := range splitArgs(inner) {
		arg := strings.TrimSpace(raw)
		switch {
		case arg == "" || arg == "...":
			continue
		case strings.HasPrefix(arg, "@"):
			if m := variableDecl.FindStringSubmatch(arg); m != nil {
				params = append(params, param{name: m[1], def: strings.TrimSpace(m[2]), hasDef: true})
				continue
			}
			params = append(params, param{name: strings.TrimSuffix(arg[1:], "...")})
		default:
			params = append(params, param{literal: arg})
		}
	}
	return params
}

// splitArgs splits mixin arguments on top-level semicolons when any are
// present and on top-level commas otherwise.
func splitArgs(s string) []string {
	sep := byte(',')
	if indexTopLevel(s, ';') >= 0 {
		sep = ';'
	}
	var out []string
	depth := 0
	start := 0
	for idx := 0; idx < len(s); idx++ {
		switch c := s[idx]; {
		case c == '"' || c == '\'':
			if end := skipString(s, idx); end > 0 {
				idx = end - 1
			}
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == sep && depth == 0:
			out = append(out, strings.TrimSpace(s[start:idx]))
			start = idx + 1
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(out) > 0 {
		out = append(out, last)
	}
	if n := len(out); n > 0 && out[n-1] == "" {
		out = out[:n-1]
	}
	return out
}

// indexTopLevel finds c outside strings and parentheses.
func indexTopLevel(s string, c byte) int {
	depth := 0
	for idx := 0; idx < len(s); idx++ {
		switch ch := s[idx]; {
		case ch == '"' || ch == '\'':
			if end := skipString(s, idx); end > 0 {
				idx = end - 1
			}
		case ch == '(' || ch == '[':
			depth++
		case ch == ')' || ch == ']':
			depth--
		case ch == c && depth == 0:
			return idx
		}
	}
	return -1
}

// splitTopLevel splits s on c outside strings, parens and brackets.
func splitTopLevel(s string, c byte) []string {
	var out []string
	for {
		idx := indexTopLevel(s, c)
		if idx < 0 {
			return append(out, s)
		}
		out = append(out, s[:idx])
		s = s[idx+1:]
	}
}

// stripComments blanks out // and /* */ comments, keeping newlines so line
// numbers stay accurate. Strings and unquoted url(...) are left intact.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	for idx := 0; idx < len(src); idx++ {
		c := src[idx]
		switch {
		case c == '"' || c == '\'':
			end := skipString(src, idx)
			if end < 0 {
				b.WriteString(src[idx:])
				return b.String()
			}
			b.WriteString(src[idx:end])
			idx = end - 1
		case strings.HasPrefix(src[idx:], "url(") && !quotedURL(src[idx+4:]):
			end := strings.IndexByte(src[idx:], ')')
			if end < 0 {
				b.WriteString(src[idx:])
				return b.String()
			}
			b.WriteString(src[idx : idx+end+1])
			idx += end
		case strings.HasPrefix(src[idx:], "/*"):
			end := strings.Index(src[idx+2:], "*/")
			if end < 0 {
				end = len(src) - idx - 2
			}
			block := src[idx : idx+2+end]
			b.WriteString(strings.Repeat("\n", strings.Count(block, "\n")))
			b.WriteByte(' ')
			idx += end + 3
		case strings.HasPrefix(src[idx:], "//"):
			end := strings.IndexByte(src[idx:], '\n')
			if end < 0 {
				return b.String()
			}
			idx += end - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func quotedURL(rest string) bool {
	rest = strings.TrimLeft(rest, " \t")
	return rest != "" && (rest[0] == '"' || rest[0] == '\'')
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstWord(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}
