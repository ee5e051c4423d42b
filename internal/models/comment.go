package models

import (
	"regexp"
	"strings"
	"time"
)

// Comment is a public reader comment on a work. Comments are anonymous by
// default; Name falls back to AnonymousName when the reader leaves it blank.
type Comment struct {
	ID        string    `json:"id"`
	WorkID    string    `json:"work_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AnonymousName is the display name used when a commenter gives none.
const AnonymousName = "Ẩn danh"

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes anything that looks like an HTML tag and trims the
// result. Comments are rendered as text, but stripping on write keeps
// stored content safe for any future consumer.
func StripHTML(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}
