package conversation

import "time"

// EntryID identifier type
type EntryID string

// PendingAnswer is the sentinel answer of an optimistic entry that has not
// been reconciled with a server response yet.
const PendingAnswer = "Thinking..."

// Citation is a weak reference into document content: only a string to be
// re-located in the live document at click time.
type Citation struct {
	Text  string `json:"text,omitempty"`
	Label string `json:"label,omitempty"`
}

// Entry is one question/answer record in the append-only log. Only the last
// entry may be mutated, exactly once, pending -> resolved.
type Entry struct {
	ID        EntryID    `json:"id"`
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations,omitempty"`
	AskedAt   time.Time  `json:"asked_at"`
}

// Pending reports whether the entry still carries the sentinel answer
func (e *Entry) Pending() bool {
	return e.Answer == PendingAnswer
}

// Answer is the remote collaborator's resolved response
type Answer struct {
	Text      string     `json:"answer"`
	Citations []Citation `json:"citations,omitempty"`
}
