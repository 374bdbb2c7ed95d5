// Package normalizer grounds free-text surface forms in the concept
// dictionary. It owns surface canonicalization, the per-category concept
// index, the exact/synonym/fuzzy matcher and the fact-level normalizer, plus
// the summary and harvesting passes that run over normalized batches.
package normalizer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SurfaceFunc canonicalizes a raw surface form into an index key.
type SurfaceFunc func(string) string

// Surface lower-cases text, straightens curly single quotes, replaces every
// rune outside [a-z0-9'] with a space, collapses whitespace and trims.
// It is total and idempotent; blank input yields "".
func Surface(text string) string {
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	gap := false
	for _, r := range text {
		if r == '‘' || r == '’' {
			r = '\''
		}
		if keepRune(r) {
			if gap && b.Len() > 0 {
				b.WriteByte(' ')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	return b.String()
}

// SurfaceFolded applies NFKC compatibility folding before Surface, so that
// full-width letters and ligatures reach the same key as their ASCII forms.
func SurfaceFolded(text string) string {
	return Surface(norm.NFKC.String(text))
}

// NewSurfaceFunc picks the canonicalizer for the given folding setting.
func NewSurfaceFunc(foldUnicode bool) SurfaceFunc {
	if foldUnicode {
		return SurfaceFolded
	}
	return Surface
}

func keepRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '\''
}

//Personal.AI order the ending
