package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// LoadState tracks whether a chat's messages have been fetched.
type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	Loaded
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

func (t *TokenUsage) Total() int {
	if t == nil {
		return 0
	}
	return t.Input + t.Output
}

type Attachment struct {
	Name        string `json:"name"`
	MimeType    string `json:"type"`
	SizeBytes   int64  `json:"size"`
	PreviewData string `json:"preview,omitempty"`
}

func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}

// Message is immutable once appended to a chat.
type Message struct {
	ID          string
	Role        Role
	Content     string
	Model       string
	Timestamp   time.Time
	Tokens      *TokenUsage
	Cost        *decimal.Decimal
	Attachments []Attachment
}

type Chat struct {
	ID         ID
	Title      string
	Messages   []Message
	CreatedAt  time.Time
	UpdatedAt  time.Time
	IsFavorite bool
	State      LoadState
}

// Clone returns a copy whose message slice can be read without holding the
// owner's lock.
func (c *Chat) Clone() Chat {
	cp := *c
	cp.Messages = append([]Message(nil), c.Messages...)
	return cp
}

func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Preview is the truncated content of the last message, or fallback when the
// chat has none loaded.
func (c *Chat) Preview(maxRunes int, fallback string) string {
	last := c.LastMessage()
	if last == nil {
		return fallback
	}
	return Truncate(last.Content, maxRunes)
}

// Truncate cuts s to maxRunes runes, adding "..." when something was cut.
func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
