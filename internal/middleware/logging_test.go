package middleware

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

func TestDescribeUpdate(t *testing.T) {
	from := &models.User{ID: 7}
	tests := []struct {
		name   string
		update *models.Update
		want   updateInfo
	}{
		{
			"login keeps only the command",
			&models.Update{Message: &models.Message{Chat: models.Chat{ID: 1}, From: from, Text: "/login a@b.c secret123"}},
			updateInfo{kind: "command", command: "/login", chatID: 1, userID: 7},
		},
		{
			"addressed command",
			&models.Update{Message: &models.Message{Chat: models.Chat{ID: 1}, From: from, Text: "/chats@MindBot"}},
			updateInfo{kind: "command", command: "/chats", chatID: 1, userID: 7},
		},
		{
			"prompt",
			&models.Update{Message: &models.Message{Chat: models.Chat{ID: 1}, From: from, Text: "Привет"}},
			updateInfo{kind: "message", chatID: 1, userID: 7},
		},
		{
			"document",
			&models.Update{Message: &models.Message{Chat: models.Chat{ID: 1}, Document: &models.Document{FileID: "f"}}},
			updateInfo{kind: "attachment", chatID: 1},
		},
		{
			"callback",
			&models.Update{CallbackQuery: &models.CallbackQuery{
				From:    models.User{ID: 7},
				Message: models.MaybeInaccessibleMessage{Message: &models.Message{Chat: models.Chat{ID: 1}}},
				Data:    "open_42",
			}},
			updateInfo{kind: "callback_query", command: "open", chatID: 1, userID: 7},
		},
		{
			"other",
			&models.Update{},
			updateInfo{kind: "unknown"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeUpdate(tt.update))
		})
	}
}
