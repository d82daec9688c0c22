package document

import "strings"

const defaultEllipsis = "..."

// TextRule bounds how much of a value is printed in a cell.
type TextRule struct {
	MaxLen     int    `yaml:"max_len"` // longer values keep Keep runes plus the ellipsis
	Keep       int    `yaml:"keep"`
	Ellipsis   string `yaml:"ellipsis"`
	Clip       int    `yaml:"clip"`        // hard cut, no ellipsis
	ShrinkOver int    `yaml:"shrink_over"` // longer values use the small font
}

// Apply returns the printable text and whether it should use the small font.
// Lengths are counted in runes; the shrink decision uses the original length.
func (r TextRule) Apply(s string) (string, bool) {
	runes := []rune(s)
	small := r.ShrinkOver > 0 && len(runes) > r.ShrinkOver

	switch {
	case r.MaxLen > 0 && len(runes) > r.MaxLen:
		keep := r.Keep
		if keep <= 0 || keep > len(runes) {
			keep = r.MaxLen
		}
		ellipsis := r.Ellipsis
		if ellipsis == "" {
			ellipsis = defaultEllipsis
		}
		return string(runes[:keep]) + ellipsis, small
	case r.Clip > 0 && len(runes) > r.Clip:
		return string(runes[:r.Clip]), small
	}
	return s, small
}

// wrapLines splits s onto two lines when it is longer than over runes. The
// break goes at the last space before the midpoint, or at the midpoint when
// there is none.
func wrapLines(s string, over int) []string {
	runes := []rune(s)
	if over <= 0 || len(runes) <= over {
		return []string{s}
	}

	mid := len(runes) / 2
	cut := mid
	for i := mid - 1; i > 0; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}

	first := strings.TrimSpace(string(runes[:cut]))
	second := strings.TrimSpace(string(runes[cut:]))
	if first == "" {
		return []string{second}
	}
	if second == "" {
		return []string{first}
	}
	return []string{first, second}
}

// blankNaN drops the "nan" markers spreadsheet exports leave in empty text cells.
func blankNaN(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "nan") {
		return ""
	}
	return s
}
