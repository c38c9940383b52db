package telegram

import (
	"strings"
	"unicode/utf8"
)

const fence = "```"

// A chunk cut inside a code block is closed with fenceClose and the next one
// reopens it, so every message renders on its own.
const (
	fenceClose  = "\n" + fence
	fenceReopen = fence + "\n"
)

// SplitMessage splits text into messages of at most maxLen runes, cutting
// at a newline in the second half of a chunk when there is one.
func SplitMessage(text string, maxLen int) []string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return []string{text}
	}

	var parts []string
	reopen := ""
	for len(runes) > 0 {
		budget := maxLen - utf8.RuneCountInString(reopen)
		if len(runes) <= budget {
			parts = append(parts, reopen+string(runes))
			break
		}

		cut := splitPoint(runes, budget)
		if fenceOpen(reopen + string(runes[:cut])) {
			cut = splitPoint(runes, budget-utf8.RuneCountInString(fenceClose))
		}
		chunk := reopen + string(runes[:cut])
		runes = runes[cut:]

		if fenceOpen(chunk) {
			parts = append(parts, chunk+fenceClose)
			reopen = fenceReopen
		} else {
			parts = append(parts, chunk)
			reopen = ""
		}
	}
	return parts
}

func splitPoint(runes []rune, limit int) int {
	limit = max(limit, 1)
	if limit >= len(runes) {
		return len(runes)
	}
	for i := limit - 1; i > limit/2; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	return limit
}

func fenceOpen(s string) bool {
	return strings.Count(s, fence)%2 == 1
}

type mdState int

const (
	mdPlain mdState = iota
	mdInline
	mdBlock
)

// FixMarkdown closes the code spans and blocks a reply left open. Escaped
// characters outside code are kept literal.
func FixMarkdown(text string) string {
	var sb strings.Builder
	state := mdPlain

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case i+2 < len(runes) && string(runes[i:i+3]) == fence:
			switch state {
			case mdInline:
				sb.WriteRune('`')
				state = mdBlock
			case mdBlock:
				state = mdPlain
			default:
				state = mdBlock
			}
			sb.WriteString(fence)
			i += 2
			continue
		case state == mdPlain && r == '\\' && i+1 < len(runes):
			sb.WriteRune(r)
			sb.WriteRune(runes[i+1])
			i++
			continue
		case state == mdPlain && r == '`':
			state = mdInline
		case state == mdInline && r == '`':
			state = mdPlain
		}
		sb.WriteRune(r)
	}

	switch state {
	case mdInline:
		sb.WriteRune('`')
	case mdBlock:
		sb.WriteString(fenceClose)
	}
	return sb.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes user text for Markdown (v1) outside of an entity.
// Text inside an entity cannot be escaped, so user text never goes there.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
