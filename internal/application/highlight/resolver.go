package highlight

import (
	"context"
	"strings"

	"github.com/clauselens/clauselens/internal/domain/analysis"
	"github.com/clauselens/clauselens/internal/domain/editor"
)

// truncateLimit bounds the single retry when the exact text is not found
// verbatim (truncation, formatting differences on the service side)
const truncateLimit = 100

// DefaultColor is used when the style key is missing or unrecognized
const DefaultColor = "#ffff00"

var severityColors = map[analysis.Severity]string{
	analysis.SeverityCritical: "#ff0000",
	analysis.SeverityHigh:     "#ffa500",
	analysis.SeverityMedium:   "#ffff00",
	analysis.SeverityLow:      "#90ee90",
}

// ColorFor maps a severity key to its highlight color. Unknown keys fall
// back to the medium color, never an error.
func ColorFor(styleKey string) string {
	if c, ok := severityColors[analysis.Severity(strings.ToLower(styleKey))]; ok {
		return c
	}
	return DefaultColor
}

// Status of a resolution attempt
type Status string

const (
	StatusHighlighted Status = "highlighted"
	StatusNotFound    Status = "not_found"
	StatusSkipped     Status = "skipped"
	StatusError       Status = "error"
)

// Outcome reports what happened to the live document
type Outcome struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Start   int    `json:"start,omitempty"`
	End     int    `json:"end,omitempty"`
	Matched string `json:"matched,omitempty"`
	Color   string `json:"color,omitempty"`
}

// Resolver maps a citation/clause string to a concrete document location
type Resolver struct {
	Editor editor.Editor
}

// ResolveAndHighlight searches for text case-insensitively, retrying once
// with the first 100 characters on zero matches. The first match in document
// order gets the severity color and the selection. Repeated invocation with
// the same text re-highlights the same match; highlights do not accumulate.
func (r *Resolver) ResolveAndHighlight(ctx context.Context, text, styleKey string) Outcome {
	if strings.TrimSpace(text) == "" {
		return Outcome{Status: StatusSkipped}
	}

	opts := editor.SearchOptions{MatchCase: false, MatchWholeWord: false}
	matches, err := r.Editor.Search(ctx, text, opts)
	if err != nil {
		return Outcome{Status: StatusError, Message: err.Error()}
	}

	if len(matches) == 0 {
		if short := truncate(text); short != text {
			matches, err = r.Editor.Search(ctx, short, opts)
			if err != nil {
				return Outcome{Status: StatusError, Message: err.Error()}
			}
		}
	}

	if len(matches) == 0 {
		return Outcome{Status: StatusNotFound, Message: "could not locate text in document"}
	}

	m := matches[0]
	color := ColorFor(styleKey)
	if err := m.Highlight(ctx, color); err != nil {
		return Outcome{Status: StatusError, Message: err.Error()}
	}
	if err := m.Select(ctx); err != nil {
		return Outcome{Status: StatusError, Message: err.Error()}
	}

	return Outcome{
		Status:  StatusHighlighted,
		Start:   m.Start(),
		End:     m.End(),
		Matched: m.Text(),
		Color:   color,
	}
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= truncateLimit {
		return s
	}
	return string(runes[:truncateLimit])
}
