package less

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

type value interface {
	css() string
}

type number struct {
	val  float64
	unit string
}

func (n number) css() string { return formatNumber(n.val) + n.unit }

// color keeps channels in 0-255 and alpha in 0-1. literal preserves the
// source spelling of colours that were never modified.
type color struct {
	r, g, b, a float64
	literal    string
}

func (c color) css() string {
	if c.literal != "" {
		return c.literal
	}
	if c.a < 1 {
		cf := c.colorful().Clamped()
		return fmt.Sprintf("rgba(%d, %d, %d, %s)",
			int(math.Round(cf.R*255)), int(math.Round(cf.G*255)), int(math.Round(cf.B*255)),
			formatNumber(clamp(c.a, 0, 1)))
	}
	return c.colorful().Clamped().Hex()
}

func (c color) colorful() colorful.Color {
	return colorful.Color{R: c.r / 255, G: c.g / 255, B: c.b / 255}
}

func fromColorful(cf colorful.Color, alpha float64) color {
	return color{r: cf.R * 255, g: cf.G * 255, b: cf.B * 255, a: alpha}
}

type keyword string

func (k keyword) css() string { return string(k) }

type quoted struct {
	s       string
	quote   byte
	escaped bool
}

func (q quoted) css() string {
	if q.escaped {
		return q.s
	}
	return string(q.quote) + q.s + string(q.quote)
}

type list struct {
	items []value
	sep   string
}

func (l list) css() string {
	parts := make([]string, len(l.items))
	for idx, item := range l.items {
		parts[idx] = item.css()
	}
	return strings.Join(parts, l.sep)
}

type call struct {
	name string
	args []value
}

func (c call) css() string {
	parts := make([]string, len(c.args))
	for idx, arg := range c.args {
		parts[idx] = arg.css()
	}
	return c.name + "(" + strings.Join(parts, ", ") + ")"
}

// plain renders a value for interpolation: strings lose their quotes.
func plain(v value) string {
	if q, ok := v.(quoted); ok {
		return q.s
	}
	return v.css()
}

func formatNumber(f float64) string {
	r := math.Round(f*1e8) / 1e8
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func parseHexColor(hex string) (color, bool) {
	switch len(hex) {
	case 4, 7:
		cf, err := colorful.Hex(hex)
		if err != nil {
			return color{}, false
		}
		c := fromColorful(cf, 1)
		c.literal = hex
		return c, true
	default:
		return color{}, false
	}
}

// toColor converts colour values and CSS colour keywords.
func toColor(v value) (color, bool) {
	switch c := v.(type) {
	case color:
		return c, true
	case keyword:
		name := strings.ToLower(string(c))
		if name == "transparent" {
			return color{a: 0}, true
		}
		if hex, ok := namedColors[name]; ok {
			parsed, ok := parseHexColor(hex)
			if !ok {
				return color{}, false
			}
			parsed.literal = ""
			return parsed, true
		}
	}
	return color{}, false
}

var namedColors = map[string]string{
	"black":   "#000000",
	"silver":  "#c0c0c0",
	"gray":    "#808080",
	"grey":    "#808080",
	"white":   "#ffffff",
	"maroon":  "#800000",
	"red":     "#ff0000",
	"purple":  "#800080",
	"fuchsia": "#ff00ff",
	"green":   "#008000",
	"lime":    "#00ff00",
	"olive":   "#808000",
	"yellow":  "#ffff00",
	"navy":    "#000080",
	"blue":    "#0000ff",
	"teal":    "#008080",
	"aqua":    "#00ffff",
	"orange":  "#ffa500",
}

func operate(op byte, a, b value, line int) (value, error) {
	if an, ok := a.(number); ok {
		if bn, ok := b.(number); ok {
			unit := an.unit
			if unit == "" {
				unit = bn.unit
			}
			result, err := arith(op, an.val, bn.val, line)
			if err != nil {
				return nil, err
			}
			return number{val: result, unit: unit}, nil
		}
		if bc, ok := b.(color); ok && (op == '+' || op == '*') {
			return operate(op, bc, an, line)
		}
	}
	if ac, ok := a.(color); ok {
		if bn, ok := b.(number); ok {
			return colorOp(op, ac, color{r: bn.val, g: bn.val, b: bn.val, a: ac.a}, line)
		}
		if bc, ok := toColor(b); ok {
			return colorOp(op, ac, bc, line)
		}
	}
	return nil, errorf(line, "cannot apply %q to %s and %s", op, a.css(), b.css())
}

func colorOp(op byte, a, b color, line int) (value, error) {
	r, err := arith(op, a.r, b.r, line)
	if err != nil {
		return nil, err
	}
	g, err := arith(op, a.g, b.g, line)
	if err != nil {
		return nil, err
	}
	bl, err := arith(op, a.b, b.b, line)
	if err != nil {
		return nil, err
	}
	return color{r: clamp(r, 0, 255), g: clamp(g, 0, 255), b: clamp(bl, 0, 255), a: a.a}, nil
}

func arith(op byte, a, b float64, line int) (float64, error) {
	switch op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		if b == 0 {
			return 0, errorf(line, "division by zero")
		}
		return a / b, nil
	}
	return 0, errorf(line, "unknown operator %q", op)
}
