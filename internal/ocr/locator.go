package ocr

import (
	"image"
	"strings"
	"sync/atomic"
)

// Locator finds the on-screen position of a query string using an OCR engine.
//
// Engine failure is sticky: once Recognize returns an error, the locator
// reports a miss for every later call without invoking the engine again.
type Locator struct {
	engine      Engine
	unavailable atomic.Bool
	logf        func(format string, args ...any)
}

// NewLocator wraps engine. logf receives degradation notices and may be nil.
func NewLocator(engine Engine, logf func(format string, args ...any)) *Locator {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Locator{engine: engine, logf: logf}
}

// Available reports whether the underlying engine is still usable.
func (l *Locator) Available() bool {
	return !l.unavailable.Load()
}

// FindText returns the center of the first occurrence of query in img.
//
// Matching is a case-insensitive substring test, attempted in two passes:
// first against each token on its own, then against consecutive token spans
// that share a block+line, re-testing the space-joined accumulation after
// each extension. The span center uses the first token's top-left, the last
// included token's right edge, and the maximum bottom edge among the span.
func (l *Locator) FindText(img image.Image, query string) (image.Point, bool) {
	if l.unavailable.Load() {
		return image.Point{}, false
	}

	words, err := l.engine.Recognize(img)
	if err != nil {
		l.unavailable.Store(true)
		l.logf("text recognition disabled for the rest of this run: %v", err)
		return image.Point{}, false
	}

	return findInWords(words, query)
}

func findInWords(words []Word, query string) (image.Point, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return image.Point{}, false
	}

	// Pass 1: a single token containing the query.
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		if strings.Contains(strings.ToLower(text), q) {
			return w.Center(), true
		}
	}

	// Pass 2: consecutive tokens on the same block+line, joined by spaces.
	for i := range words {
		first := words[i]
		if strings.TrimSpace(first.Text) == "" {
			continue
		}
		combined := strings.TrimSpace(first.Text)
		last := i

		for j := i + 1; j < len(words); j++ {
			if words[j].Block != first.Block || words[j].Line != first.Line {
				continue
			}
			text := strings.TrimSpace(words[j].Text)
			if text == "" {
				continue
			}
			combined += " " + text
			last = j

			if strings.Contains(strings.ToLower(combined), q) {
				x1 := first.Left
				y1 := first.Top
				x2 := words[last].Left + words[last].Width
				y2 := y1
				for k := i; k <= last; k++ {
					if strings.TrimSpace(words[k].Text) == "" {
						continue
					}
					if bottom := words[k].Top + words[k].Height; bottom > y2 {
						y2 = bottom
					}
				}
				return image.Pt((x1+x2)/2, (y1+y2)/2), true
			}
		}
	}

	return image.Point{}, false
}
