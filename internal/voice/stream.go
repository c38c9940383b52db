package voice

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Event is one line of a recognizer stream: either a batch of results
// starting at ResultIndex, or an error code.
type Event struct {
	Results     []Result `json:"results,omitempty"`
	ResultIndex int      `json:"resultIndex"`
	Error       string   `json:"error,omitempty"`
}

// Handlers receive what a Feed produces besides the draft text.
type Handlers struct {
	Interim func(text string)
	Error   func(notice string)
}

// Feed records from a JSON-lines recognizer stream into d until EOF or the
// first recognizer error. Recording is stopped on return.
func Feed(r io.Reader, d *Draft, h Handlers) error {
	d.Start()
	defer d.Stop()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return fmt.Errorf("parse recognizer event on line %d: %w", line, err)
		}
		if ev.Error != "" {
			if h.Error != nil {
				h.Error(ErrorNotice(ev.Error))
			}
			return nil
		}
		if !d.OnResult(ev.Results, ev.ResultIndex) && h.Interim != nil {
			h.Interim(d.Interim())
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read recognizer stream: %w", err)
	}
	return nil
}
