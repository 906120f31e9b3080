package less

import (
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

type function func(args []value, line int) (value, error)

var functions map[string]function

func init() {
	functions = map[string]function{
		"rgb":        fnRGB,
		"rgba":       fnRGB,
		"hsl":        fnHSL,
		"hsla":       fnHSL,
		"lighten":    hslAdjust(func(h, s, l, amt float64) (float64, float64, float64) { return h, s, l + amt }),
		"darken":     hslAdjust(func(h, s, l, amt float64) (float64, float64, float64) { return h, s, l - amt }),
		"saturate":   hslAdjust(func(h, s, l, amt float64) (float64, float64, float64) { return h, s + amt, l }),
		"desaturate": hslAdjust(func(h, s, l, amt float64) (float64, float64, float64) { return h, s - amt, l }),
		"spin":       fnSpin,
		"fade":       alphaAdjust(func(_, amt float64) float64 { return amt }),
		"fadein":     alphaAdjust(func(a, amt float64) float64 { return a + amt }),
		"fadeout":    alphaAdjust(func(a, amt float64) float64 { return a - amt }),
		"mix":        fnMix,
		"greyscale":  fnGreyscale,
		"grayscale":  fnGreyscale,
		"contrast":   fnContrast,
		"hue":        hslChannel(func(h, _, _ float64) value { return number{val: math.Round(h)} }),
		"saturation": hslChannel(func(_, s, _ float64) value { return number{val: math.Round(s * 100), unit: "%"} }),
		"lightness":  hslChannel(func(_, _, l float64) value { return number{val: math.Round(l * 100), unit: "%"} }),
		"percentage": fnPercentage,
		"round":      mathFn(math.Round),
		"ceil":       mathFn(math.Ceil),
		"floor":      mathFn(math.Floor),
		"e":          fnEscape,
		"unit":       fnUnit,
	}
}

// callFunction evaluates built-in functions; anything else is emitted as a
// CSS function call with evaluated arguments.
func (ev *evaluator) callFunction(name string, args []value, line int) (value, error) {
	if fn, ok := functions[strings.ToLower(name)]; ok {
		v, err := fn(args, line)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return call{name: name, args: args}, nil
}

func argColor(name string, args []value, idx, line int) (color, error) {
	if idx >= len(args) {
		return color{}, errorf(line, "%s: missing colour argument", name)
	}
	c, ok := toColor(args[idx])
	if !ok {
		return color{}, errorf(line, "%s: %s is not a colour", name, args[idx].css())
	}
	return c, nil
}

func argNumber(name string, args []value, idx, line int) (number, error) {
	if idx >= len(args) {
		return number{}, errorf(line, "%s: missing numeric argument", name)
	}
	n, ok := args[idx].(number)
	if !ok {
		return number{}, errorf(line, "%s: %s is not a number", name, args[idx].css())
	}
	return n, nil
}

// fraction maps percentages and 0-1 numbers onto 0-1.
func fraction(n number) float64 {
	if n.unit == "%" || n.val > 1 {
		return n.val / 100
	}
	return n.val
}

func channel(n number) float64 {
	if n.unit == "%" {
		return clamp(n.val*255/100, 0, 255)
	}
	return clamp(n.val, 0, 255)
}

func fnRGB(args []value, line int) (value, error) {
	if len(args) == 2 {
		c, err := argColor("rgba", args, 0, line)
		if err != nil {
			return nil, err
		}
		a, err := argNumber("rgba", args, 1, line)
		if err != nil {
			return nil, err
		}
		c.literal = ""
		c.a = clamp(fraction(a), 0, 1)
		return c, nil
	}
	if len(args) < 3 {
		return nil, errorf(line, "rgb: expected 3 or 4 arguments")
	}
	var ch [3]float64
	for idx := range ch {
		n, err := argNumber("rgb", args, idx, line)
		if err != nil {
			return nil, err
		}
		ch[idx] = channel(n)
	}
	alpha := 1.0
	if len(args) > 3 {
		a, err := argNumber("rgba", args, 3, line)
		if err != nil {
			return nil, err
		}
		alpha = clamp(fraction(a), 0, 1)
	}
	return color{r: ch[0], g: ch[1], b: ch[2], a: alpha}, nil
}

func fnHSL(args []value, line int) (value, error) {
	if len(args) < 3 {
		return nil, errorf(line, "hsl: expected 3 or 4 arguments")
	}
	h, err := argNumber("hsl", args, 0, line)
	if err != nil {
		return nil, err
	}
	s, err := argNumber("hsl", args, 1, line)
	if err != nil {
		return nil, err
	}
	l, err := argNumber("hsl", args, 2, line)
	if err != nil {
		return nil, err
	}
	alpha := 1.0
	if len(args) > 3 {
		a, err := argNumber("hsla", args, 3, line)
		if err != nil {
			return nil, err
		}
		alpha = clamp(fraction(a), 0, 1)
	}
	hue := math.Mod(h.val, 360)
	if hue < 0 {
		hue += 360
	}
	cf := colorful.Hsl(hue, clamp(fraction(s), 0, 1), clamp(fraction(l), 0, 1))
	return fromColorful(cf, alpha), nil
}

// hslAdjust builds lighten/darken/saturate/desaturate: the amount is a
// percentage of the full range.
func hslAdjust(adjust func(h, s, l, amt float64) (float64, float64, float64)) function {
	return func(args []value, line int) (value, error) {
		c, err := argColor("colour function", args, 0, line)
		if err != nil {
			return nil, err
		}
		amt, err := argNumber("colour function", args, 1, line)
		if err != nil {
			return nil, err
		}
		h, s, l := c.colorful().Clamped().Hsl()
		h, s, l = adjust(h, s, l, amt.val/100)
		return fromColorful(colorful.Hsl(h, clamp(s, 0, 1), clamp(l, 0, 1)), c.a), nil
	}
}

func fnSpin(args []value, line int) (value, error) {
	c, err := argColor("spin", args, 0, line)
	if err != nil {
		return nil, err
	}
	deg, err := argNumber("spin", args, 1, line)
	if err != nil {
		return nil, err
	}
	h, s, l := c.colorful().Clamped().Hsl()
	h = math.Mod(h+deg.val, 360)
	if h < 0 {
		h += 360
	}
	return fromColorful(colorful.Hsl(h, s, l), c.a), nil
}

func alphaAdjust(adjust func(alpha, amt float64) float64) function {
	return func(args []value, line int) (value, error) {
		c, err := argColor("alpha function", args, 0, line)
		if err != nil {
			return nil, err
		}
		amt, err := argNumber("alpha function", args, 1, line)
		if err != nil {
			return nil, err
		}
		c.literal = ""
		c.a = clamp(adjust(c.a, amt.val/100), 0, 1)
		return c, nil
	}
}

func fnMix(args []value, line int) (value, error) {
	c1, err := argColor("mix", args, 0, line)
	if err != nil {
		return nil, err
	}
	c2, err := argColor("mix", args, 1, line)
	if err != nil {
		return nil, err
	}
	weight := 0.5
	if len(args) > 2 {
		w, err := argNumber("mix", args, 2, line)
		if err != nil {
			return nil, err
		}
		weight = w.val / 100
	}
	w := weight*2 - 1
	a := c1.a - c2.a
	var w1 float64
	if w*a == -1 {
		w1 = (w + 1) / 2
	} else {
		w1 = ((w+a)/(1+w*a) + 1) / 2
	}
	blended := c1.colorful().BlendRgb(c2.colorful(), 1-w1)
	return fromColorful(blended, c1.a*weight+c2.a*(1-weight)), nil
}

func fnGreyscale(args []value, line int) (value, error) {
	c, err := argColor("greyscale", args, 0, line)
	if err != nil {
		return nil, err
	}
	h, _, l := c.colorful().Clamped().Hsl()
	return fromColorful(colorful.Hsl(h, 0, l), c.a), nil
}

func fnContrast(args []value, line int) (value, error) {
	c, err := argColor("contrast", args, 0, line)
	if err != nil {
		return nil, err
	}
	dark := color{a: 1}
	light := color{r: 255, g: 255, b: 255, a: 1}
	if len(args) > 1 {
		if dark, err = argColor("contrast", args, 1, line); err != nil {
			return nil, err
		}
	}
	if len(args) > 2 {
		if light, err = argColor("contrast", args, 2, line); err != nil {
			return nil, err
		}
	}
	threshold := 0.43
	if len(args) > 3 {
		t, err := argNumber("contrast", args, 3, line)
		if err != nil {
			return nil, err
		}
		threshold = fraction(t)
	}
	if luma(dark) > luma(light) {
		dark, light = light, dark
	}
	if luma(c) < threshold {
		return light, nil
	}
	return dark, nil
}

func luma(c color) float64 {
	r, g, b := c.colorful().Clamped().LinearRgb()
	return (0.2126*r + 0.7152*g + 0.0722*b) * c.a
}

func hslChannel(pick func(h, s, l float64) value) function {
	return func(args []value, line int) (value, error) {
		c, err := argColor("colour channel", args, 0, line)
		if err != nil {
			return nil, err
		}
		return pick(c.colorful().Clamped().Hsl()), nil
	}
}

func fnPercentage(args []value, line int) (value, error) {
	n, err := argNumber("percentage", args, 0, line)
	if err != nil {
		return nil, err
	}
	return number{val: n.val * 100, unit: "%"}, nil
}

func mathFn(apply func(float64) float64) function {
	return func(args []value, line int) (value, error) {
		n, err := argNumber("math function", args, 0, line)
		if err != nil {
			return nil, err
		}
		if len(args) > 1 {
			places, err := argNumber("round", args, 1, line)
			if err != nil {
				return nil, err
			}
			scale := math.Pow(10, places.val)
			return number{val: apply(n.val*scale) / scale, unit: n.unit}, nil
		}
		return number{val: apply(n.val), unit: n.unit}, nil
	}
}

func fnEscape(args []value, line int) (value, error) {
	if len(args) != 1 {
		return nil, errorf(line, "e: expected one argument")
	}
	return quoted{s: plain(args[0]), escaped: true}, nil
}

func fnUnit(args []value, line int) (value, error) {
	n, err := argNumber("unit", args, 0, line)
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return number{val: n.val}, nil
	}
	return number{val: n.val, unit: plain(args[1])}, nil
}
