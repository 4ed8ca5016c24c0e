package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var grouped = message.NewPrinter(language.English)

// FormatNumber renders v with a d3-style specifier: an optional ","
// for thousands separators, ".N" digits, then "f" for fixed point or "%"
// for a percentage of 1. "" prints the shortest representation.
func FormatNumber(spec string, v float64) string {
	if spec == "" {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	group := strings.HasPrefix(spec, ",")
	spec = strings.TrimPrefix(spec, ",")
	if spec == "" {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	kind := spec[len(spec)-1]
	digits := 6
	if len(spec) > 1 && strings.HasPrefix(spec, ".") {
		if n, err := strconv.Atoi(spec[1 : len(spec)-1]); err == nil {
			digits = n
		}
	}

	var suffix string
	switch kind {
	case '%':
		v *= 100
		suffix = "%"
	case 'f':
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	verb := fmt.Sprintf("%%.%df", digits)
	if group {
		return grouped.Sprintf(verb, v) + suffix
	}
	return fmt.Sprintf(verb, v) + suffix
}
