package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/sudo-init-do/artmaster/internal/apperr"
)

var hexColor = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// hexNames maps "#rrggbb" to the first CSS color name (alphabetically) with
// that value, so aliases like aqua/cyan resolve deterministically.
var hexNames = func() map[string]string {
	m := make(map[string]string, len(colornames.Names))
	for _, name := range colornames.Names {
		c := colornames.Map[name]
		hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
		if _, ok := m[hex]; !ok {
			m[hex] = name
		}
	}
	return m
}()

// ColorName returns the CSS name for a normalized hex color.
func ColorName(hex string) (string, bool) {
	name, ok := hexNames[hex]
	return name, ok
}

// NormalizeColor lowercases raw and checks that it is a 7-char hex color with
// a known name.
func NormalizeColor(raw string) (string, error) {
	hex := strings.ToLower(strings.TrimSpace(raw))
	if !hexColor.MatchString(hex) {
		return "", apperr.Validation("color: must be a hex color like #ff0000")
	}
	if _, ok := hexNames[hex]; !ok {
		return "", apperr.Validation(fmt.Sprintf("color: no color name for %s", hex))
	}
	return hex, nil
}
