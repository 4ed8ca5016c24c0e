package render

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	agroErrors "github.com/ezoic/agrodash/pkg/errors"
)

var namedColors = map[string]color.NRGBA{
	"transparent": {},
	"white":       {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"black":       {A: 0xff},
}

// ParseColor reads a CSS colour: #rgb, #rrggbb, rgb(r, g, b),
// rgba(r, g, b, a) or one of transparent, white and black.
func ParseColor(s string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[v]; ok {
		return c, nil
	}

	switch {
	case strings.HasPrefix(v, "#"):
		return parseHex(v[1:], s)
	case strings.HasPrefix(v, "rgba(") && strings.HasSuffix(v, ")"):
		return parseFunc(v[len("rgba("):len(v)-1], 4, s)
	case strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")"):
		return parseFunc(v[len("rgb("):len(v)-1], 3, s)
	}
	return color.NRGBA{}, badColor(s)
}

func parseHex(h, orig string) (color.NRGBA, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, badColor(orig)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, badColor(orig)
	}
	return color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
}

func parseFunc(args string, want int, orig string) (color.NRGBA, error) {
	parts := strings.Split(args, ",")
	if len(parts) != want {
		return color.NRGBA{}, badColor(orig)
	}
	var ch [4]uint8
	ch[3] = 0xff
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return color.NRGBA{}, badColor(orig)
		}
		if i == 3 {
			if f < 0 || f > 1 {
				return color.NRGBA{}, badColor(orig)
			}
			ch[3] = uint8(math.Round(f * 255))
			continue
		}
		if f < 0 || f > 255 {
			return color.NRGBA{}, badColor(orig)
		}
		ch[i] = uint8(math.Round(f))
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

func badColor(s string) error {
	return agroErrors.NewValidationError("color", "unrecognised colour", s)
}
