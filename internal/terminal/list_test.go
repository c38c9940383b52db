package terminal

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/set-night/mindchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listFixture() []domain.Chat {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Chat{
		{ID: "7", Title: "Рецепты\nна неделю", UpdatedAt: at, IsFavorite: true,
			Messages: []domain.Message{{Role: domain.RoleUser, Content: "борщ"}}},
		{ID: "3", Title: "Пустой", UpdatedAt: at},
	}
}

func TestWriteChats_TSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChats(&buf, listFixture(), true, "tsv"))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id\tfavorite\tupdated_at\ttitle\tpreview", lines[0])
	assert.Equal(t, "7\t*\t2024-06-01T12:00:00Z\tРецепты\\nна неделю\tборщ", lines[1])
	assert.Equal(t, "3\t\t2024-06-01T12:00:00Z\tПустой\tНачните новый диалог", lines[2])
}

func TestWriteChats_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChats(&buf, listFixture(), false, "json"))

	var got []chatSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "7", got[0].ID)
	assert.True(t, got[0].Favorite)
	assert.Equal(t, "борщ", got[0].Preview)
}

func TestWriteChats_UnknownFormat(t *testing.T) {
	assert.Error(t, WriteChats(&bytes.Buffer{}, nil, false, "xml"))
}

func TestWriteModels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteModels(&buf, domain.DefaultModels()[:2], "gpt-3.5-turbo"))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "  gpt-4-turbo\tGPT-4 Turbo\tOpenAI\t"))
	assert.True(t, strings.HasPrefix(lines[1], "* gpt-3.5-turbo\t"))
	assert.True(t, strings.HasSuffix(lines[1], "\t16K\ttext,code"))
}
