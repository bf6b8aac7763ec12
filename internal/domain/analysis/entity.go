package analysis

import "strings"

// Severity enum for a single risk finding
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank position in the fixed severity ordering critical > high > medium > low
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// ParseSeverity normalizes a level string; anything unrecognized maps to low
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Risk is one finding returned by the analysis service.
// Identity is positional: the index in Result.Risks correlates a highlight
// action back to the originating risk.
type Risk struct {
	Level       Severity `json:"risk_level"`
	Description string   `json:"description"`
	ClauseText  string   `json:"clause_text,omitempty"`
	Mitigation  string   `json:"mitigation,omitempty"`
	Type        string   `json:"risk_type,omitempty"`
}

// Result is the full payload of one analysis. Read-only once received.
type Result struct {
	Risks  []Risk `json:"risks"`
	Report string `json:"report"`
}

// SeverityCounts value object
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// Overall reduces a risk sequence to the highest-ranked level present.
// Empty input yields low.
func Overall(risks []Risk) Severity {
	out := SeverityLow
	for _, r := range risks {
		if r.Level.Rank() > out.Rank() {
			out = r.Level
		}
	}
	return out
}

// CountBySeverity tallies risks per level for history records
func CountBySeverity(risks []Risk) SeverityCounts {
	var c SeverityCounts
	for _, r := range risks {
		switch r.Level {
		case SeverityCritical:
			c.Critical++
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		default:
			c.Low++
		}
		c.Total++
	}
	return c
}
