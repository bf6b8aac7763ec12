package memdoc

import (
	"context"
	"sync"
	"unicode"

	"github.com/clauselens/clauselens/internal/domain/editor"
)

// Document is an in-memory implementation of the editor ports. The add-in
// pushes the live document's text here; search results carry rune offsets
// the add-in maps back onto real ranges. Highlights are keyed by range so a
// repeated highlight of the same match replaces, never accumulates.
type Document struct {
	mu         sync.RWMutex
	text       []rune
	highlights map[span]string
	selection  *span
}

type span struct {
	start, end int
}

func New(text string) *Document {
	return &Document{
		text:       []rune(text),
		highlights: make(map[span]string),
	}
}

// Load replaces the document content; stale highlights and the selection are
// dropped with it.
func (d *Document) Load(text string) {
	d.mu.Lock()
	d.text = []rune(text)
	d.highlights = make(map[span]string)
	d.selection = nil
	d.mu.Unlock()
}

// FullText implements editor.Editor
func (d *Document) FullText(ctx context.Context) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return string(d.text), nil
}

// Search returns every non-overlapping match in document order
func (d *Document) Search(ctx context.Context, text string, opts editor.SearchOptions) ([]editor.Range, error) {
	needle := []rune(text)
	if len(needle) == 0 {
		return nil, nil
	}

	d.mu.RLock()
	hay := d.text
	var out []editor.Range
	for i := 0; i+len(needle) <= len(hay); i++ {
		if !matchAt(hay, needle, i, opts.MatchCase) {
			continue
		}
		if opts.MatchWholeWord && !wholeWordAt(hay, i, i+len(needle)) {
			continue
		}
		out = append(out, &Range{doc: d, start: i, end: i + len(needle)})
		i += len(needle) - 1
	}
	d.mu.RUnlock()
	return out, nil
}

func matchAt(hay, needle []rune, at int, matchCase bool) bool {
	for j, r := range needle {
		h := hay[at+j]
		if matchCase {
			if h != r {
				return false
			}
		} else if unicode.ToLower(h) != unicode.ToLower(r) {
			return false
		}
	}
	return true
}

func wholeWordAt(hay []rune, start, end int) bool {
	wordRune := func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	if start > 0 && wordRune(hay[start-1]) {
		return false
	}
	if end < len(hay) && wordRune(hay[end]) {
		return false
	}
	return true
}

// HighlightAt reports the color applied to an exact range, if any
func (d *Document) HighlightAt(start, end int) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.highlights[span{start, end}]
	return c, ok
}

// HighlightCount reports how many distinct ranges carry a highlight
func (d *Document) HighlightCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.highlights)
}

// Selection reports the currently selected range, if any
func (d *Document) Selection() (start, end int, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.selection == nil {
		return 0, 0, false
	}
	return d.selection.start, d.selection.end, true
}

// Range is one search match inside a Document
type Range struct {
	doc        *Document
	start, end int
}

func (r *Range) Start() int { return r.start }
func (r *Range) End() int   { return r.end }

// A Range may outlive the content it was found in: Load can replace the text
// while a caller still holds matches from an earlier Search. Stale ranges
// degrade to no-ops instead of touching the new content.
func (r *Range) stale() bool {
	return r.end > len(r.doc.text)
}

func (r *Range) Text() string {
	r.doc.mu.RLock()
	defer r.doc.mu.RUnlock()
	if r.stale() {
		return ""
	}
	return string(r.doc.text[r.start:r.end])
}

func (r *Range) Highlight(ctx context.Context, color string) error {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	if r.stale() {
		return nil
	}
	r.doc.highlights[span{r.start, r.end}] = color
	return nil
}

func (r *Range) Select(ctx context.Context) error {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	if r.stale() {
		return nil
	}
	r.doc.selection = &span{r.start, r.end}
	return nil
}
