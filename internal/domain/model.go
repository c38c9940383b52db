package domain

import (
	"fmt"
	"math"
	"strings"
)

type Capability string

const (
	CapabilityText   Capability = "text"
	CapabilityVision Capability = "vision"
	CapabilityCode   Capability = "code"
)

type ModelDescriptor struct {
	ID                 string
	DisplayName        string
	ProviderLabel      string
	PricePerOutputUnit float64 // backend currency per 1K output tokens
	ContextWindowSize  int
	Capabilities       []Capability
}

func (m *ModelDescriptor) Has(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// PriceLabel renders the output price in the local currency.
func (m *ModelDescriptor) PriceLabel(rate float64) string {
	return fmt.Sprintf("~%.2f₽/1K токенов", m.PricePerOutputUnit*rate)
}

func (m *ModelDescriptor) ContextLabel() string {
	return fmt.Sprintf("%dK", int(math.Floor(float64(m.ContextWindowSize)/1000)))
}

func (m *ModelDescriptor) Icon() string {
	switch {
	case strings.Contains(m.ProviderLabel, "OpenAI"):
		return "🔹"
	case strings.Contains(m.ProviderLabel, "Anthropic"):
		return "🟣"
	case strings.Contains(m.ProviderLabel, "Google"):
		return "🔶"
	case strings.Contains(m.ProviderLabel, "Meta"):
		return "🦙"
	default:
		return "🤖"
	}
}

// DefaultModels is the catalog used until the backend answers, and kept when
// it does not.
func DefaultModels() []ModelDescriptor {
	textCode := []Capability{CapabilityText, CapabilityCode}
	all := []Capability{CapabilityText, CapabilityVision, CapabilityCode}
	return []ModelDescriptor{
		{ID: "gpt-4-turbo", DisplayName: "GPT-4 Turbo", ProviderLabel: "OpenAI", PricePerOutputUnit: 0.021, ContextWindowSize: 128000, Capabilities: all},
		{ID: "gpt-3.5-turbo", DisplayName: "GPT-3.5 Turbo", ProviderLabel: "OpenAI", PricePerOutputUnit: 0.0021, ContextWindowSize: 16000, Capabilities: textCode},
		{ID: "claude-3-opus", DisplayName: "Claude 3 Opus", ProviderLabel: "Anthropic", PricePerOutputUnit: 0.0316, ContextWindowSize: 200000, Capabilities: all},
		{ID: "gemini-pro", DisplayName: "Gemini Pro", ProviderLabel: "Google", PricePerOutputUnit: 0.0105, ContextWindowSize: 32000, Capabilities: all},
		{ID: "claude-3-sonnet", DisplayName: "Claude 3 Sonnet", ProviderLabel: "Anthropic", PricePerOutputUnit: 0.0158, ContextWindowSize: 200000, Capabilities: all},
		{ID: "yandexgpt-pro", DisplayName: "YandexGPT Pro", ProviderLabel: "Yandex", PricePerOutputUnit: 0.0105, ContextWindowSize: 8000, Capabilities: textCode},
	}
}
