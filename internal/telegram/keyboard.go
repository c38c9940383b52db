package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
)

// Callback data prefixes.
const (
	CallbackOpen     = "open_"
	CallbackFavorite = "fav_"
	CallbackDelete   = "del_"
	CallbackModel    = "m_"
	CallbackPage     = "chats"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// PaginationRow creates a pagination row with prev/next buttons.
func PaginationRow(currentPage, totalPages int, callbackPrefix string) []models.InlineKeyboardButton {
	var row []models.InlineKeyboardButton

	if currentPage > 0 {
		row = append(row, InlineButton("⬅️", fmt.Sprintf("%s_%d", callbackPrefix, currentPage-1)))
	}

	row = append(row, InlineButton(
		fmt.Sprintf("%d/%d", currentPage+1, totalPages),
		"cur",
	))

	if currentPage < totalPages-1 {
		row = append(row, InlineButton("➡️", fmt.Sprintf("%s_%d", callbackPrefix, currentPage+1)))
	}

	return row
}

// ChatListKeyboard lists one page of chats, each with open, favorite and
// delete buttons. The current chat is marked. An empty pagePrefix shows the
// first page only.
func ChatListKeyboard(chats []domain.Chat, currentID domain.ID, page int, pagePrefix string) *models.InlineKeyboardMarkup {
	totalPages := (len(chats) + config.ChatsPerPage - 1) / config.ChatsPerPage
	if totalPages == 0 {
		totalPages = 1
	}
	if pagePrefix == "" {
		page = 0
	}
	page = min(max(page, 0), totalPages-1)

	var rows [][]models.InlineKeyboardButton
	start := page * config.ChatsPerPage
	end := min(start+config.ChatsPerPage, len(chats))
	for _, c := range chats[start:end] {
		title := domain.Truncate(c.Title, 32)
		if c.ID == currentID {
			title = "▶️ " + title
		}
		star := "☆"
		if c.IsFavorite {
			star = "⭐"
		}
		id := c.ID.String()
		rows = append(rows, ButtonRow(
			InlineButton(title, CallbackOpen+id),
			InlineButton(star, CallbackFavorite+id),
			InlineButton("🗑", CallbackDelete+id),
		))
	}

	if totalPages > 1 && pagePrefix != "" {
		rows = append(rows, PaginationRow(page, totalPages, pagePrefix))
	}
	return InlineKeyboard(rows...)
}

// ModelKeyboard offers every catalog model, marking the selected one.
func ModelKeyboard(list []domain.ModelDescriptor, selected string) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(list))
	for _, m := range list {
		label := m.Icon() + " " + m.DisplayName
		if m.ID == selected {
			label = "✅ " + label
		}
		rows = append(rows, ButtonRow(InlineButton(label, CallbackModel+m.ID)))
	}
	return InlineKeyboard(rows...)
}
