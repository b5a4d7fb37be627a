// Package contrast implements the WCAG 2.x relative luminance and contrast
// ratio formulas.
package contrast

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RGB holds channels in the 0..1 range.
type RGB struct {
	R, G, B float64
}

var (
	hex6     = regexp.MustCompile(`(?i)^#?([a-f\d]{2})([a-f\d]{2})([a-f\d]{2})$`)
	validHex = regexp.MustCompile(`(?i)^#?([a-f\d]{3}|[a-f\d]{6})$`)
)

// HexToRGB parses a six digit hex colour, with or without a leading #.
func HexToRGB(hex string) (RGB, bool) {
	m := hex6.FindStringSubmatch(hex)
	if m == nil {
		return RGB{}, false
	}
	var ch [3]float64
	for i := 0; i < 3; i++ {
		v, _ := strconv.ParseUint(m[i+1], 16, 8)
		ch[i] = float64(v) / 255
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}, true
}

func linearize(c float64) float64 {
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func Luminance(c RGB) float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

func RatioRGB(a, b RGB) float64 {
	l1, l2 := Luminance(a), Luminance(b)
	return (math.Max(l1, l2) + 0.05) / (math.Min(l1, l2) + 0.05)
}

// Ratio returns the contrast ratio of two hex colours, or 0 when either is
// not a valid colour. Shorthand input is expanded first.
func Ratio(a, b string) float64 {
	ca, ok := HexToRGB(NormalizeHex(a))
	if !ok {
		return 0
	}
	cb, ok := HexToRGB(NormalizeHex(b))
	if !ok {
		return 0
	}
	return RatioRGB(ca, cb)
}

type Result struct {
	Ratio          float64 `json:"ratio"`
	PassesAA       bool    `json:"passes_aa"`
	PassesAAA      bool    `json:"passes_aaa"`
	PassesAALarge  bool    `json:"passes_aa_large"`
	PassesAAALarge bool    `json:"passes_aaa_large"`
}

// Check evaluates a foreground/background pair. Thresholds apply to the
// unrounded ratio; the reported ratio is rounded to two decimals.
func Check(foreground, background string) Result {
	ratio := Ratio(foreground, background)
	return Result{
		Ratio:          math.Round(ratio*100) / 100,
		PassesAA:       ratio >= 4.5,
		PassesAAA:      ratio >= 7,
		PassesAALarge:  ratio >= 3,
		PassesAAALarge: ratio >= 4.5,
	}
}

// Level returns AAA, AA or Fail for ratio.
func Level(ratio float64, largeText bool) string {
	if largeText {
		switch {
		case ratio >= 4.5:
			return "AAA"
		case ratio >= 3:
			return "AA"
		}
		return "Fail"
	}
	switch {
	case ratio >= 7:
		return "AAA"
	case ratio >= 4.5:
		return "AA"
	}
	return "Fail"
}

func IsValidHex(hex string) bool {
	return validHex.MatchString(hex)
}

// NormalizeHex adds a leading #, expands #abc shorthand and upper-cases.
func NormalizeHex(hex string) string {
	n := hex
	if !strings.HasPrefix(n, "#") {
		n = "#" + n
	}
	if len(n) == 4 {
		n = string([]byte{'#', n[1], n[1], n[2], n[2], n[3], n[3]})
	}
	return strings.ToUpper(n)
}
