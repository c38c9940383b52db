package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileEdit(t *testing.T) {
	tests := []struct {
		args string
		want profileEdit
	}{
		{"", profileEdit{op: opShow}},
		{"value Свобода 70", profileEdit{op: opSetValue, name: "Свобода", value: 70}},
		{"value Личная свобода 5", profileEdit{op: opSetValue, name: "Личная свобода", value: 5}},
		{"interest add Машинное обучение", profileEdit{op: opAddInterest, name: "Машинное обучение"}},
		{"interest rm 2", profileEdit{op: opRemoveInterest, index: 1}},
		{"skill add Go", profileEdit{op: opAddSkill, name: "Go"}},
		{"skill add Rust 2", profileEdit{op: opAddSkill, name: "Rust", value: 2}},
		{"skill add 1C", profileEdit{op: opAddSkill, name: "1C"}},
		{"SKILL DEL 1", profileEdit{op: opRemoveSkill, index: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			got, err := parseProfileEdit(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProfileEdit_Usage(t *testing.T) {
	for _, args := range []string{
		"value 70",
		"value Свобода много",
		"interest add",
		"interest rm два",
		"skill rm 1 2",
		"skill rename Go",
		"avatar",
	} {
		_, err := parseProfileEdit(args)
		assert.ErrorIs(t, err, errProfileUsage, args)
	}
}
