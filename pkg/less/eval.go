package less

import (
	"errors"
	"regexp"
	"strings"
)

type binding struct {
	raw   string
	line  int
	owner *scope
	val   value
	done  bool
}

type mixin struct {
	params     []param
	body       []node
	scope      *scope
	parametric bool
	bodyScope  *scope
}

type scope struct {
	parent   *scope
	fallback *scope
	vars     map[string]*binding
	mixins   map[string][]*mixin
}

func newScope(parent *scope) *scope {
	return &scope{
		parent: parent,
		vars:   make(map[string]*binding),
		mixins: make(map[string][]*mixin),
	}
}

func (s *scope) lookup(name string) *binding {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b
		}
	}
	for cur := s; cur != nil; cur = cur.parent {
		if cur.fallback != nil {
			if b := cur.fallback.lookup(name); b != nil {
				return b
			}
		}
	}
	return nil
}

func (s *scope) findMixins(name string) []*mixin {
	for cur := s; cur != nil; cur = cur.parent {
		if found := cur.mixins[name]; len(found) > 0 {
			return found
		}
	}
	for cur := s; cur != nil; cur = cur.parent {
		if cur.fallback != nil {
			if found := cur.fallback.findMixins(name); len(found) > 0 {
				return found
			}
		}
	}
	return nil
}

type condition struct {
	kind  atKind
	query string
}

type decl struct {
	prop      string
	value     string
	important bool
}

type ruleItem struct {
	selectors []string
	decls     []decl
}

type blockItem struct {
	header string
	body   *ruleItem
	rules  []*ruleItem
}

type item struct {
	conds []condition
	rule  *ruleItem
	block *blockItem
}

// frame is the output context of the block being evaluated.
type frame struct {
	selectors []string
	conds     []condition
	target    *ruleItem
	important bool
}

type evaluator struct {
	maxDepth   int
	depth      int
	out        []item
	hoisted    []string
	seenHoist  map[string]struct{}
	evaluating map[*binding]bool
}

func newEvaluator(maxDepth int) *evaluator {
	return &evaluator{
		maxDepth:   maxDepth,
		seenHoist:  make(map[string]struct{}),
		evaluating: make(map[*binding]bool),
	}
}

var simpleSelector = regexp.MustCompile(`^[.#][A-Za-z0-9_-]+$`)

// collect registers the variables and mixins of a block before any of its
// statements run, which makes variables lazy and last-definition-wins.
func (ev *evaluator) collect(nodes []node, sc *scope) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *varNode:
			sc.vars[n.name] = &binding{raw: n.value, line: n.line, owner: sc}
		case *mixinDefNode:
			sc.mixins[n.name] = append(sc.mixins[n.name], &mixin{
				params:     n.params,
				body:       n.body,
				scope:      sc,
				parametric: true,
			})
		case *ruleNode:
			for _, sel := range splitTopLevel(n.selector, ',') {
				sel = strings.TrimSpace(sel)
				if simpleSelector.MatchString(sel) {
					sc.mixins[sel] = append(sc.mixins[sel], &mixin{body: n.body, scope: sc})
				}
			}
		}
	}
}

func (ev *evaluator) evalBody(nodes []node, sc *scope, fr frame) error {
	for _, n := range nodes {
		var err error
		switch n := n.(type) {
		case *varNode, *mixinDefNode:
		case *hoistNode:
			err = ev.hoist(n, sc)
		case *declNode:
			err = ev.evalDecl(n, sc, fr)
		case *callNode:
			err = ev.evalCall(n, sc, fr)
		case *ruleNode:
			err = ev.evalRule(n, sc, fr)
		case *atRuleNode:
			err = ev.evalAtRule(n, sc, fr)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluator) hoist(n *hoistNode, sc *scope) error {
	text, err := ev.interpolate(n.text, sc, n.line)
	if err != nil {
		return err
	}
	text = collapseSpace(text)
	if _, seen := ev.seenHoist[text]; seen {
		return nil
	}
	ev.seenHoist[text] = struct{}{}
	ev.hoisted = append(ev.hoisted, text)
	return nil
}

var importantSuffix = regexp.MustCompile(`\s*!\s*important\s*$`)

func (ev *evaluator) evalDecl(n *declNode, sc *scope, fr frame) error {
	if fr.target == nil {
		return errorf(n.line, "declaration %q outside of a ruleset", n.prop)
	}
	prop, err := ev.interpolate(n.prop, sc, n.line)
	if err != nil {
		return err
	}
	raw := n.value
	important := fr.important
	if loc := importantSuffix.FindStringIndex(raw); loc != nil {
		important = true
		raw = raw[:loc[0]]
	}
	val, err := ev.evalValueText(raw, sc, n.line)
	if err != nil {
		return err
	}
	fr.target.decls = append(fr.target.decls, decl{prop: prop, value: val, important: important})
	return nil
}

func (ev *evaluator) evalRule(n *ruleNode, sc *scope, fr frame) error {
	selector, err := ev.interpolate(n.selector, sc, n.line)
	if err != nil {
		return err
	}
	selectors := joinSelectors(fr.selectors, splitSelectors(selector))
	rule := &ruleItem{selectors: selectors}
	ev.emit(item{conds: fr.conds, rule: rule})
	child := newScope(sc)
	ev.collect(n.body, child)
	return ev.evalBody(n.body, child, frame{
		selectors: selectors,
		conds:     fr.conds,
		target:    rule,
		important: fr.important,
	})
}

func (ev *evaluator) evalAtRule(n *atRuleNode, sc *scope, fr frame) error {
	child := newScope(sc)
	ev.collect(n.body, child)

	switch n.kind {
	case atMedia, atSupports:
		query, err := ev.interpolateQuery(n.header, sc, n.line)
		if err != nil {
			return err
		}
		conds := append(append([]condition(nil), fr.conds...), condition{kind: n.kind, query: query})
		inner := frame{selectors: fr.selectors, conds: conds, important: fr.important}
		if len(fr.selectors) > 0 {
			rule := &ruleItem{selectors: fr.selectors}
			ev.emit(item{conds: conds, rule: rule})
			inner.target = rule
		}
		return ev.evalBody(n.body, child, inner)

	case atKeyframes:
		header, err := ev.interpolate(n.header, sc, n.line)
		if err != nil {
			return err
		}
		block := &blockItem{header: header}
		saved := ev.out
		ev.out = nil
		err = ev.evalBody(n.body, child, frame{important: fr.important})
		nested := ev.out
		ev.out = saved
		if err != nil {
			return err
		}
		for _, it := range nested {
			if it.rule != nil {
				block.rules = append(block.rules, it.rule)
			}
		}
		ev.emit(item{conds: fr.conds, block: block})
		return nil

	default:
		header, err := ev.interpolate(n.header, sc, n.line)
		if err != nil {
			return err
		}
		block := &blockItem{header: header, body: &ruleItem{}}
		ev.emit(item{conds: fr.conds, block: block})
		return ev.evalBody(n.body, child, frame{conds: fr.conds, target: block.body, important: fr.important})
	}
}

func (ev *evaluator) emit(it item) {
	ev.out = append(ev.out, it)
}

func (ev *evaluator) evalCall(n *callNode, sc *scope, fr frame) error {
	candidates := sc.findMixins(n.path[0])
	for _, segment := range n.path[1:] {
		var next []*mixin
		for _, m := range candidates {
			next = append(next, ev.bodyScope(m).mixins[segment]...)
		}
		candidates = next
	}
	if len(candidates) == 0 {
		return errorf(n.line, "undefined mixin %s", strings.Join(n.path, " > "))
	}

	positional, named, err := ev.evalArgs(n.args, sc, n.line)
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range candidates {
		if !m.accepts(len(positional), named) {
			continue
		}
		applied++
		if err := ev.expand(m, positional, named, sc, fr, n); err != nil {
			return err
		}
	}
	if applied == 0 {
		return errorf(n.line, "no mixin %s matches %d argument(s)", strings.Join(n.path, " > "), len(positional)+len(named))
	}
	return nil
}

var namedArg = regexp.MustCompile(`(?s)^@([A-Za-z0-9_-]+)\s*:\s*(.*)$`)

func (ev *evaluator) evalArgs(args []string, sc *scope, line int) ([]value, map[string]value, error) {
	var positional []value
	named := make(map[string]value)
	for _, raw := range args {
		if m := namedArg.FindStringSubmatch(raw); m != nil {
			v, err := ev.evalValue(m[2], sc, line)
			if err != nil {
				return nil, nil, err
			}
			named[m[1]] = v
			continue
		}
		v, err := ev.evalValue(raw, sc, line)
		if err != nil {
			return nil, nil, err
		}
		positional = append(positional, v)
	}
	return positional, named, nil
}

func (m *mixin) accepts(positional int, named map[string]value) bool {
	if !m.parametric {
		return positional == 0 && len(named) == 0
	}
	if positional > len(m.params) {
		return false
	}
	for idx, p := range m.params {
		if idx < positional {
			continue
		}
		if p.literal != "" {
			return false
		}
		if _, ok := named[p.name]; ok || p.hasDef {
			continue
		}
		return false
	}
	return true
}

func (ev *evaluator) bodyScope(m *mixin) *scope {
	if m.bodyScope == nil {
		m.bodyScope = newScope(m.scope)
		ev.collect(m.body, m.bodyScope)
	}
	return m.bodyScope
}

func (ev *evaluator) expand(m *mixin, positional []value, named map[string]value, caller *scope, fr frame, n *callNode) error {
	if ev.depth >= ev.maxDepth {
		return errorf(n.line, "mixin %s nested too deeply", strings.Join(n.path, " > "))
	}
	ev.depth++
	defer func() { ev.depth-- }()

	sc := newScope(m.scope)
	sc.fallback = caller
	var all []value
	for idx, p := range m.params {
		if p.literal != "" {
			if idx < len(positional) {
				all = append(all, positional[idx])
			}
			continue
		}
		b := &binding{owner: sc, line: n.line}
		switch v, ok := named[p.name]; {
		case idx < len(positional):
			b.val, b.done = positional[idx], true
		case ok:
			b.val, b.done = v, true
		default:
			b.raw = p.def
		}
		sc.vars[p.name] = b
		v, err := ev.resolve(b, p.name)
		if err != nil {
			return err
		}
		all = append(all, v)
	}
	if len(all) > 0 {
		sc.vars["arguments"] = &binding{val: list{items: all, sep: " "}, done: true, owner: sc}
	}

	body := newScope(sc)
	ev.collect(m.body, body)
	inner := fr
	inner.important = fr.important || n.important
	return ev.evalBody(m.body, body, inner)
}

func (ev *evaluator) lookupVar(sc *scope, name string, line int) (value, error) {
	b := sc.lookup(name)
	if b == nil {
		return nil, errorf(line, "undefined variable @%s", name)
	}
	return ev.resolve(b, name)
}

func (ev *evaluator) resolve(b *binding, name string) (value, error) {
	if b.done {
		return b.val, nil
	}
	if ev.evaluating[b] {
		return nil, errorf(b.line, "recursive variable definition for @%s", name)
	}
	ev.evaluating[b] = true
	defer delete(ev.evaluating, b)
	v, err := ev.evalValue(b.raw, b.owner, b.line)
	if err != nil {
		return nil, err
	}
	b.val, b.done = v, true
	return v, nil
}

// evalValue parses an expression. Text outside the expression grammar is
// kept as a keyword with variables substituted.
func (ev *evaluator) evalValue(raw string, sc *scope, line int) (value, error) {
	text, err := ev.interpolate(raw, sc, line)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return keyword(""), nil
	}
	toks, err := lex(text)
	if err == nil {
		p := &exprParser{ev: ev, sc: sc, toks: toks, line: line}
		var v value
		v, err = p.parseCommaList()
		if err == nil && p.pos == len(p.toks) {
			return v, nil
		}
		if err == nil {
			err = errUnparsed
		}
	}
	if !errors.Is(err, errUnparsed) {
		return nil, err
	}
	substituted, err := ev.substituteVars(text, sc, line)
	if err != nil {
		return nil, err
	}
	return keyword(substituted), nil
}

func (ev *evaluator) evalValueText(raw string, sc *scope, line int) (string, error) {
	v, err := ev.evalValue(raw, sc, line)
	if err != nil {
		return "", err
	}
	return v.css(), nil
}

var (
	interpolation = regexp.MustCompile(`@\{([A-Za-z0-9_-]+)\}`)
	variableRef   = regexp.MustCompile(`@([A-Za-z0-9_-]+)`)
)

// interpolate replaces @{name} with the plain value of the variable.
func (ev *evaluator) interpolate(text string, sc *scope, line int) (string, error) {
	return replaceVars(interpolation, text, func(name string) (string, error) {
		v, err := ev.lookupVar(sc, name, line)
		if err != nil {
			return "", err
		}
		return plain(v), nil
	})
}

func (ev *evaluator) substituteVars(text string, sc *scope, line int) (string, error) {
	return replaceVars(variableRef, text, func(name string) (string, error) {
		v, err := ev.lookupVar(sc, name, line)
		if err != nil {
			return "", err
		}
		return v.css(), nil
	})
}

func (ev *evaluator) interpolateQuery(query string, sc *scope, line int) (string, error) {
	text, err := ev.interpolate(query, sc, line)
	if err != nil {
		return "", err
	}
	text, err = replaceVars(variableRef, text, func(name string) (string, error) {
		v, err := ev.lookupVar(sc, name, line)
		if err != nil {
			return "", err
		}
		return plain(v), nil
	})
	if err != nil {
		return "", err
	}
	return collapseSpace(text), nil
}

func replaceVars(pattern *regexp.Regexp, text string, resolve func(string) (string, error)) (string, error) {
	var firstErr error
	out := pattern.ReplaceAllStringFunc(text, func(match string) string {
		if firstErr != nil {
			return match
		}
		name := pattern.FindStringSubmatch(match)[1]
		v, err := resolve(name)
		if err != nil {
			firstErr = err
			return match
		}
		return v
	})
	return out, firstErr
}

func splitSelectors(selector string) []string {
	parts := splitTopLevel(selector, ',')
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = collapseSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// joinSelectors forms the cross product of parent and child selectors. A
// child containing & places the parent there, otherwise it is a descendant.
func joinSelectors(parents, children []string) []string {
	if len(parents) == 0 {
		out := make([]string, 0, len(children))
		for _, child := range children {
			out = append(out, strings.TrimSpace(strings.ReplaceAll(child, "&", "")))
		}
		return out
	}
	out := make([]string, 0, len(parents)*len(children))
	for _, parent := range parents {
		for _, child := range children {
			if strings.Contains(child, "&") {
				out = append(out, strings.ReplaceAll(child, "&", parent))
				continue
			}
			out = append(out, parent+" "+child)
		}
	}
	return out
}

func (ev *evaluator) render() string {
	var b strings.Builder
	for _, h := range ev.hoisted {
		b.WriteString(h)
		b.WriteString(";\n")
	}
	var open []condition
	for _, it := range ev.out {
		if it.empty() {
			continue
		}
		open = reopen(&b, open, it.conds)
		indent := strings.Repeat("  ", len(open))
		switch {
		case it.rule != nil:
			writeRule(&b, it.rule, indent)
		case it.block != nil:
			writeBlock(&b, it.block, indent)
		}
	}
	reopen(&b, open, nil)
	return b.String()
}

func (it item) empty() bool {
	if it.rule != nil {
		return len(it.rule.decls) == 0 || len(it.rule.selectors) == 0
	}
	if it.block.body != nil {
		return len(it.block.body.decls) == 0
	}
	return len(it.block.rules) == 0
}

// reopen closes the condition blocks not shared with want and opens the
// missing ones, so consecutive items under the same query share one block.
func reopen(b *strings.Builder, open, want []condition) []condition {
	merged := mergeConditions(want)
	shared := 0
	for shared < len(open) && shared < len(merged) && open[shared] == merged[shared] {
		shared++
	}
	for idx := len(open) - 1; idx >= shared; idx-- {
		b.WriteString(strings.Repeat("  ", idx))
		b.WriteString("}\n")
	}
	for idx := shared; idx < len(merged); idx++ {
		b.WriteString(strings.Repeat("  ", idx))
		if merged[idx].kind == atSupports {
			b.WriteString("@supports ")
		} else {
			b.WriteString("@media ")
		}
		b.WriteString(merged[idx].query)
		b.WriteString(" {\n")
	}
	return merged
}

// mergeConditions joins directly nested media queries with "and".
func mergeConditions(conds []condition) []condition {
	var out []condition
	for _, c := range conds {
		if n := len(out); n > 0 && c.kind == atMedia && out[n-1].kind == atMedia {
			out[n-1].query += " and " + c.query
			continue
		}
		out = append(out, c)
	}
	return out
}

func writeRule(b *strings.Builder, rule *ruleItem, indent string) {
	for idx, sel := range rule.selectors {
		b.WriteString(indent)
		b.WriteString(sel)
		if idx < len(rule.selectors)-1 {
			b.WriteString(",\n")
		}
	}
	b.WriteString(" {\n")
	writeDecls(b, rule.decls, indent+"  ")
	b.WriteString(indent)
	b.WriteString("}\n")
}

func writeDecls(b *strings.Builder, decls []decl, indent string) {
	for _, d := range decls {
		b.WriteString(indent)
		b.WriteString(d.prop)
		b.WriteString(": ")
		b.WriteString(d.value)
		if d.important {
			b.WriteString(" !important")
		}
		b.WriteString(";\n")
	}
}

func writeBlock(b *strings.Builder, block *blockItem, indent string) {
	b.WriteString(indent)
	b.WriteString(block.header)
	b.WriteString(" {\n")
	if block.body != nil {
		writeDecls(b, block.body.decls, indent+"  ")
	}
	for _, rule := range block.rules {
		if len(rule.decls) == 0 {
			continue
		}
		writeRule(b, rule, indent+"  ")
	}
	b.WriteString(indent)
	b.WriteString("}\n")
}
