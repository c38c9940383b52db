package service

import (
	"context"

	"github.com/set-night/mindchat/internal/domain"
	"github.com/shopspring/decimal"
)

// Event is a state-changed notification pushed to a Surface.
type Event interface {
	event()
}

type ChatListChanged struct {
	Chats     []domain.Chat
	CurrentID domain.ID
}

type ChatOpened struct {
	Chat domain.Chat
}

type MessageAppended struct {
	ChatID  domain.ID
	Message domain.Message
}

// LoadingStarted asks the surface to show a transient placeholder for the
// chat until the matching LoadingFinished.
type LoadingStarted struct {
	ChatID domain.ID
}

type LoadingFinished struct {
	ChatID domain.ID
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

type Notice struct {
	Level NoticeLevel
	Text  string
}

type BalanceChanged struct {
	Balance decimal.Decimal
}

type SessionChanged struct {
	LoggedIn bool
	User     domain.User
}

type ModelSelected struct {
	Model domain.ModelDescriptor
}

type AttachmentsChanged struct {
	Pending []domain.Attachment
}

type ThemeChanged struct {
	Theme string
}

// ProfileChanged carries the user's profile after an edit.
type ProfileChanged struct {
	Profile domain.Profile
}

func (ChatListChanged) event()    {}
func (ChatOpened) event()         {}
func (MessageAppended) event()    {}
func (LoadingStarted) event()     {}
func (LoadingFinished) event()    {}
func (Notice) event()             {}
func (BalanceChanged) event()     {}
func (SessionChanged) event()     {}
func (ModelSelected) event()      {}
func (AttachmentsChanged) event() {}
func (ThemeChanged) event()       {}
func (ProfileChanged) event()     {}

// Surface renders state. It never changes client state on its own; user
// intents come back through Client methods.
type Surface interface {
	Render(ctx context.Context, ev Event)
}

type SurfaceFunc func(ctx context.Context, ev Event)

func (f SurfaceFunc) Render(ctx context.Context, ev Event) {
	f(ctx, ev)
}

type nopSurface struct{}

func (nopSurface) Render(context.Context, Event) {}
