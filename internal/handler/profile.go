package handler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/service"
	tg "github.com/set-night/mindchat/internal/telegram"
)

const profileUsage = "Использование:\n" +
	"/profile — показать профиль\n" +
	"/profile value Название 0-100\n" +
	"/profile interest add Текст\n" +
	"/profile interest rm Номер\n" +
	"/profile skill add Название [1-5]\n" +
	"/profile skill rm Номер"

var errProfileUsage = errors.New("profile usage")

// profileEdit is one parsed /profile subcommand. index is 0-based.
type profileEdit struct {
	op    string
	name  string
	value int
	index int
}

const (
	opShow           = "show"
	opSetValue       = "value"
	opAddInterest    = "interest-add"
	opRemoveInterest = "interest-rm"
	opAddSkill       = "skill-add"
	opRemoveSkill    = "skill-rm"
)

func parseProfileEdit(args string) (profileEdit, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return profileEdit{op: opShow}, nil
	}

	switch strings.ToLower(fields[0]) {
	case "value":
		// The name may have spaces; the weight is the last word.
		if len(fields) < 3 {
			return profileEdit{}, errProfileUsage
		}
		weight, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			return profileEdit{}, errProfileUsage
		}
		return profileEdit{op: opSetValue, name: strings.Join(fields[1:len(fields)-1], " "), value: weight}, nil

	case "interest", "skill":
		if len(fields) < 3 {
			return profileEdit{}, errProfileUsage
		}
		kind := strings.ToLower(fields[0])
		switch strings.ToLower(fields[1]) {
		case "add":
			rest := fields[2:]
			edit := profileEdit{op: kind + "-add"}
			if kind == "skill" && len(rest) > 1 {
				if level, err := strconv.Atoi(rest[len(rest)-1]); err == nil {
					edit.value = level
					rest = rest[:len(rest)-1]
				}
			}
			edit.name = strings.Join(rest, " ")
			return edit, nil
		case "rm", "del":
			n, err := strconv.Atoi(fields[2])
			if err != nil || len(fields) != 3 {
				return profileEdit{}, errProfileUsage
			}
			return profileEdit{op: kind + "-rm", index: n - 1}, nil
		}
	}
	return profileEdit{}, errProfileUsage
}

func (e profileEdit) apply(ctx context.Context, client *service.Client) (domain.Profile, error) {
	switch e.op {
	case opSetValue:
		return client.SetProfileValue(ctx, e.name, e.value)
	case opAddInterest:
		return client.AddInterest(ctx, e.name)
	case opRemoveInterest:
		return client.RemoveInterest(ctx, e.index)
	case opAddSkill:
		return client.AddSkill(ctx, e.name, e.value)
	case opRemoveSkill:
		return client.RemoveSkill(ctx, e.index)
	default:
		return client.Profile(ctx)
	}
}

func (h *Handler) handleProfile(ctx context.Context, b *bot.Bot, update *models.Update) {
	client, chatID, ok := h.requireLogin(ctx, b, update)
	if !ok {
		return
	}
	edit, err := parseProfileEdit(commandArgs(update.Message.Text))
	if err != nil {
		tg.SendText(ctx, b, chatID, profileUsage)
		return
	}

	p, err := edit.apply(ctx, client)
	if err != nil {
		// The client has already told the user.
		return
	}
	// Edits are rendered by the client through ProfileChanged.
	if edit.op == opShow {
		if err := tg.SendLongMessage(ctx, b, chatID, tg.FormatProfile(p), nil); err != nil {
			slog.Error("send profile", "chat_id", chatID, "error", err)
		}
	}
}
