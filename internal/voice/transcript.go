// Package voice holds the contract between a continuous speech-to-text
// source and the message input: finalized chunks are appended to the draft,
// interim ones are only shown.
package voice

import (
	"strings"
	"sync"
)

// Result is one recognition hypothesis as delivered by the recognizer.
type Result struct {
	Transcript string `json:"transcript"`
	Final      bool   `json:"isFinal"`
}

// Accumulate walks results from index from onward. Every final transcript is
// followed by a single space; interim transcripts are concatenated as-is.
func Accumulate(results []Result, from int) (final, interim string) {
	if from < 0 {
		from = 0
	}
	var fb, ib strings.Builder
	for i := from; i < len(results); i++ {
		if results[i].Final {
			fb.WriteString(results[i].Transcript)
			fb.WriteByte(' ')
		} else {
			ib.WriteString(results[i].Transcript)
		}
	}
	return fb.String(), ib.String()
}

// Draft is the message being composed, fed by typing and by recognition.
type Draft struct {
	mu        sync.Mutex
	text      string
	interim   string
	recording bool
}

func (d *Draft) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
}

func (d *Draft) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// Interim is the latest not-yet-final hypothesis.
func (d *Draft) Interim() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.interim
}

func (d *Draft) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recording = true
	d.interim = ""
}

// Stop ends recording; it is safe to call more than once.
func (d *Draft) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recording = false
	d.interim = ""
}

func (d *Draft) Recording() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recording
}

// OnResult applies a recognition event and reports whether the draft text
// changed.
func (d *Draft) OnResult(results []Result, from int) bool {
	final, interim := Accumulate(results, from)

	d.mu.Lock()
	defer d.mu.Unlock()
	if final != "" {
		d.text += final
		d.interim = ""
		return true
	}
	d.interim = interim
	return false
}

// Take returns the trimmed draft and clears it.
func (d *Draft) Take() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	text := strings.TrimSpace(d.text)
	d.text = ""
	d.interim = ""
	return text
}

// ErrorNotice maps a recognizer error code to the text shown to the user.
func ErrorNotice(code string) string {
	switch code {
	case "no-speech":
		return "Речь не обнаружена. Попробуйте еще раз."
	case "audio-capture":
		return "Микрофон не найден или доступ запрещен."
	case "not-allowed":
		return "Доступ к микрофону запрещен. Разрешите доступ в настройках браузера."
	case "network":
		return "Ошибка сети. Проверьте подключение к интернету."
	default:
		return "Ошибка голосового ввода"
	}
}
