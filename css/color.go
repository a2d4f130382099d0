package css

import (
	"image/color"
	"math"
	"strconv"
	"strings"
	"sync"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/image/colornames"
)

// ColorProcessor converts color string to host token. Nil result means the
// string is not a color and should be passed through.
type ColorProcessor func(color string) any

// ParseColor understands hex notation, rgb()/rgba(), hsl()/hsla(), named
// colors and "transparent".
func ParseColor(s string) (color.NRGBA, bool) {
	lex := css.NewLexer(parse.NewInputString(strings.TrimSpace(s)))

	tt, data := lex.Next()
	var (
		c  color.NRGBA
		ok bool
	)
	switch tt {
	case css.HashToken:
		c, ok = parseHex(string(data[1:]))
	case css.IdentToken:
		c, ok = parseNamed(strings.ToLower(string(data)))
	case css.FunctionToken:
		c, ok = parseFunction(strings.ToLower(strings.TrimSuffix(string(data), "(")), lex)
	}
	if !ok {
		return color.NRGBA{}, false
	}
	// nothing but whitespace allowed after color
	for {
		tt, _ := lex.Next()
		switch tt {
		case css.WhitespaceToken:
			continue
		case css.ErrorToken:
			return c, true
		default:
			return color.NRGBA{}, false
		}
	}
}

// Pack returns color as 0xAARRGGBB.
func Pack(c color.NRGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// ProcessColor is default ColorProcessor producing packed 0xAARRGGBB tokens.
func ProcessColor(s string) any {
	c, ok := ParseColor(s)
	if !ok {
		return nil
	}
	return Pack(c)
}

// CachedColorProcessor memoizes results of fn by input string.
func CachedColorProcessor(fn ColorProcessor) ColorProcessor {
	if fn == nil {
		return nil
	}
	var cache sync.Map
	return func(s string) any {
		if v, ok := cache.Load(s); ok {
			return v
		}
		v, _ := cache.LoadOrStore(s, fn(s))
		return v
	}
}

// IsColorKey reports whether values under key are colors.
func IsColorKey(key string) bool {
	return key == "color" || strings.Contains(key, "Color")
}

func parseHex(h string) (color.NRGBA, bool) {
	expand := func(b byte) string { return string([]byte{b, b}) }
	switch len(h) {
	case 3, 4:
		var full strings.Builder
		for i := 0; i < len(h); i++ {
			full.WriteString(expand(h[i]))
		}
		h = full.String()
	case 6, 8:
	default:
		return color.NRGBA{}, false
	}
	if len(h) == 6 {
		h += "ff"
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, true
}

func parseNamed(name string) (color.NRGBA, bool) {
	if name == "transparent" {
		return color.NRGBA{}, true
	}
	c, ok := colornames.Map[name]
	if !ok {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, true
}

type component struct {
	value   float64
	percent bool
	unit    string
}

// parseFunction reads arguments up to closing parenthesis, commas and slash
// separators are both accepted.
func parseFunction(name string, lex *css.Lexer) (color.NRGBA, bool) {
	var args []component
loop:
	for {
		tt, data := lex.Next()
		switch tt {
		case css.WhitespaceToken, css.CommaToken:
		case css.DelimToken:
			if string(data) != "/" {
				return color.NRGBA{}, false
			}
		case css.NumberToken:
			f, err := strconv.ParseFloat(string(data), 64)
			if err != nil {
				return color.NRGBA{}, false
			}
			args = append(args, component{value: f})
		case css.PercentageToken:
			f, err := strconv.ParseFloat(strings.TrimSuffix(string(data), "%"), 64)
			if err != nil {
				return color.NRGBA{}, false
			}
			args = append(args, component{value: f, percent: true})
		case css.DimensionToken:
			num, unit := splitDimension(string(data))
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return color.NRGBA{}, false
			}
			args = append(args, component{value: f, unit: unit})
		case css.RightParenthesisToken:
			break loop
		default:
			return color.NRGBA{}, false
		}
	}
	if len(args) != 3 && len(args) != 4 {
		return color.NRGBA{}, false
	}

	alpha := uint8(255)
	if len(args) == 4 {
		a := args[3].value
		if args[3].percent {
			a /= 100
		}
		alpha = clamp8(a * 255)
	}

	switch name {
	case "rgb", "rgba":
		var rgb [3]uint8
		for i := range rgb {
			v := args[i].value
			if args[i].percent {
				v = v * 255 / 100
			}
			rgb[i] = clamp8(v)
		}
		return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: alpha}, true
	case "hsl", "hsla":
		h := args[0].value
		switch args[0].unit {
		case "", "deg":
		case "rad":
			h = h * 180 / math.Pi
		case "turn":
			h *= 360
		default:
			return color.NRGBA{}, false
		}
		r, g, b := hslToRGB(h, args[1].value/100, args[2].value/100)
		return color.NRGBA{R: r, G: g, B: b, A: alpha}, true
	default:
		return color.NRGBA{}, false
	}
}

func splitDimension(s string) (string, string) {
	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' && r != 'e' && r != 'E'
	})
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.ToLower(s[i:])
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	s = math.Max(0, math.Min(1, s))
	l = math.Max(0, math.Min(1, l))
	if s == 0 {
		v := clamp8(l * 255)
		return v, v, v
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	hue := func(t float64) float64 {
		switch {
		case t < 0:
			t++
		case t > 1:
			t--
		}
		switch {
		case t < 1.0/6:
			return p + (q-p)*6*t
		case t < 0.5:
			return q
		case t < 2.0/3:
			return p + (q-p)*(2.0/3-t)*6
		default:
			return p
		}
	}
	return clamp8(hue(h+1.0/3) * 255), clamp8(hue(h) * 255), clamp8(hue(h-1.0/3) * 255)
}

func clamp8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}
