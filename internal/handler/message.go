package handler

import (
	"bytes"
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
	tg "github.com/set-night/mindchat/internal/telegram"
)

// HandleMessage sends private text to the current chat. A photo or document
// with a caption is sent together with the caption; without one it waits in
// the pending attachments for the next message.
func (h *Handler) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != models.ChatTypePrivate {
		return
	}
	msg := update.Message

	// Skip commands
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	client, chatID, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return
	}

	file, err := downloadAttachment(ctx, b, msg)
	if err != nil {
		slog.Error("download attachment", "chat_id", chatID, "error", err)
		tg.SendText(ctx, b, chatID, "❌ Не удалось загрузить файл.")
		return
	}

	content := msg.Text
	var extra []domain.Attachment
	if file != nil {
		if strings.TrimSpace(msg.Caption) == "" {
			client.Attach(ctx, file.name, file.mimeType, bytes.NewReader(file.data))
			return
		}
		att, err := service.ReadAttachment(file.name, file.mimeType, bytes.NewReader(file.data))
		if err != nil {
			tg.SendText(ctx, b, chatID, "❌ Не удалось прикрепить файл.")
			return
		}
		content = msg.Caption
		extra = append(extra, att)
	}

	// The reply and any failure are rendered by the client.
	client.SendMessage(ctx, content, extra...)
}

type telegramFile struct {
	name     string
	mimeType string
	data     []byte
}

// downloadAttachment fetches the photo or document of msg, or returns nil
// when it has none.
func downloadAttachment(ctx context.Context, b *bot.Bot, msg *models.Message) (*telegramFile, error) {
	var fileID string
	f := &telegramFile{}
	switch {
	case len(msg.Photo) > 0:
		// The last size is the largest.
		fileID = msg.Photo[len(msg.Photo)-1].FileID
		f.mimeType = "image/jpeg"
	case msg.Document != nil:
		fileID = msg.Document.FileID
		f.name = msg.Document.FileName
		f.mimeType = msg.Document.MimeType
	default:
		return nil, nil
	}

	data, filePath, err := tg.DownloadFile(ctx, b, fileID)
	if err != nil {
		return nil, err
	}
	f.data = data
	if f.name == "" {
		f.name = path.Base(filePath)
	}
	return f, nil
}
