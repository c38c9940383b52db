package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Backend is everything the client needs from the chat API.
type Backend interface {
	Authenticator
	ChatBackend
	ModelLister
}

type Deps struct {
	Backend      Backend
	Store        repository.KV
	Surface      Surface
	Models       *ModelCatalog // shared catalog; a fresh default one when nil
	DefaultModel string
	Clock        func() time.Time
}

// Client is one user's chat client: it owns the session, the chat list and
// the model catalog, and is the single place where failures turn into
// notices and where an Unauthorized response tears the session down.
type Client struct {
	backend Backend
	surface Surface

	Session  *SessionStore
	Chats    *ChatManager
	Models   *ModelCatalog
	Profiles *ProfileStore
}

func New(deps Deps) *Client {
	surface := deps.Surface
	if surface == nil {
		surface = nopSurface{}
	}
	models := deps.Models
	if models == nil {
		models = NewModelCatalog()
	}

	session := NewSessionStore(deps.Store, deps.Backend)
	chats := NewChatManager(deps.Backend, session, surface, deps.DefaultModel)
	if deps.Clock != nil {
		chats.now = deps.Clock
	}

	return &Client{
		backend: deps.Backend,
		surface: surface,
		Session:  session,
		Chats:    chats,
		Models:   models,
		Profiles: NewProfileStore(deps.Store),
	}
}

// Start restores a persisted session, then loads the model catalog and the
// chat list side by side.
func (c *Client) Start(ctx context.Context) error {
	restored, err := c.Session.Restore(ctx)
	if err != nil {
		slog.Warn("restore session", "error", err)
	}
	c.publishSession(ctx)
	c.surface.Render(ctx, ThemeChanged{Theme: c.Session.Theme(ctx)})

	// Each load writes its own slice of state; a failing chat load must not
	// cancel the catalog fetch.
	var g errgroup.Group
	g.Go(func() error {
		if err := c.Models.Load(ctx, c.backend); err != nil {
			slog.Warn("model catalog unavailable, keeping defaults", "error", err)
		}
		return nil
	})
	if restored {
		g.Go(func() error {
			return c.Chats.LoadChats(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return c.fail(ctx, "Не удалось загрузить чаты", err)
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	if _, err := c.Session.Login(ctx, email, password); err != nil {
		return c.fail(ctx, "Ошибка входа", err)
	}
	c.publishSession(ctx)
	c.notify(ctx, NoticeSuccess, "Вход выполнен успешно! Добро пожаловать!")
	return c.reloadChats(ctx)
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	if _, err := c.Session.Register(ctx, email, password); err != nil {
		return c.fail(ctx, "Ошибка регистрации", err)
	}
	c.publishSession(ctx)
	c.notify(ctx, NoticeSuccess, "Регистрация успешна! Добро пожаловать!")
	return c.reloadChats(ctx)
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.teardown(ctx)
	c.notify(ctx, NoticeInfo, "Вы вышли из системы")
	return err
}

func (c *Client) reloadChats(ctx context.Context) error {
	if err := c.Chats.LoadChats(ctx); err != nil {
		return c.fail(ctx, "Не удалось загрузить чаты", err)
	}
	return nil
}

func (c *Client) CreateChat(ctx context.Context, title string) (domain.Chat, error) {
	chat, err := c.Chats.CreateChat(ctx, title)
	if err != nil {
		return chat, c.fail(ctx, "Не удалось создать чат", err)
	}
	return chat, nil
}

func (c *Client) OpenChat(ctx context.Context, id domain.ID) (domain.Chat, error) {
	chat, err := c.Chats.OpenChat(ctx, id)
	if err != nil {
		return chat, c.fail(ctx, "Не удалось загрузить сообщения", err)
	}
	return chat, nil
}

func (c *Client) SendMessage(ctx context.Context, content string, attachments ...domain.Attachment) (domain.Message, error) {
	msg, err := c.Chats.SendMessage(ctx, content, attachments...)
	if err != nil {
		return msg, c.fail(ctx, "Ошибка", err)
	}
	return msg, nil
}

func (c *Client) DeleteChat(ctx context.Context, id domain.ID) error {
	if err := c.Chats.DeleteChat(ctx, id); err != nil {
		return c.fail(ctx, "Не удалось удалить чат", err)
	}
	return nil
}

func (c *Client) RenameChat(ctx context.Context, id domain.ID, title string) (domain.Chat, error) {
	chat, err := c.Chats.RenameChat(ctx, id, title)
	if err != nil {
		return chat, c.fail(ctx, "Не удалось переименовать чат", err)
	}
	return chat, nil
}

func (c *Client) ToggleFavorite(ctx context.Context, id domain.ID) (domain.Chat, error) {
	chat, err := c.Chats.ToggleFavorite(ctx, id)
	if err != nil {
		return chat, c.fail(ctx, "Не удалось обновить чат", err)
	}
	return chat, nil
}

func (c *Client) SelectModel(ctx context.Context, id string) error {
	model, ok := c.Models.Get(id)
	if !ok {
		return c.fail(ctx, "Модель недоступна", fmt.Errorf("%w: %s", domain.ErrUnknownModel, id))
	}
	c.Chats.SelectModel(id)
	c.surface.Render(ctx, ModelSelected{Model: model})
	return nil
}

// Attach reads a selected file into the pending attachment list.
func (c *Client) Attach(ctx context.Context, name, mimeType string, r io.Reader) (domain.Attachment, error) {
	att, err := ReadAttachment(name, mimeType, r)
	if err != nil {
		return att, c.fail(ctx, "Не удалось прикрепить файл", err)
	}
	pending := c.Chats.AddAttachment(att)
	c.surface.Render(ctx, AttachmentsChanged{Pending: pending})
	return att, nil
}

func (c *Client) RemoveAttachment(ctx context.Context, index int) error {
	pending, err := c.Chats.RemoveAttachment(index)
	if err != nil {
		return c.fail(ctx, "Не удалось убрать файл", err)
	}
	c.surface.Render(ctx, AttachmentsChanged{Pending: pending})
	return nil
}

func (c *Client) SetTheme(ctx context.Context, theme string) error {
	if err := c.Session.SetTheme(ctx, theme); err != nil {
		return c.fail(ctx, "Не удалось сменить тему", err)
	}
	c.surface.Render(ctx, ThemeChanged{Theme: theme})
	return nil
}

func (c *Client) ToggleTheme(ctx context.Context) (string, error) {
	next := "light"
	if c.Session.Theme(ctx) == "light" {
		next = "dark"
	}
	return next, c.SetTheme(ctx, next)
}

// Profile returns the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (domain.Profile, error) {
	sess, ok := c.Session.Current()
	if !ok {
		return domain.Profile{}, c.fail(ctx, "Профиль недоступен", domain.ErrAuthRequired)
	}
	p, err := c.Profiles.Load(ctx, sess.User.ID)
	if err != nil {
		return p, c.fail(ctx, "Не удалось загрузить профиль", err)
	}
	return p, nil
}

func (c *Client) SetProfileValue(ctx context.Context, name string, weight int) (domain.Profile, error) {
	return c.editProfile(ctx, func(userID domain.ID) (domain.Profile, error) {
		return c.Profiles.SetValue(ctx, userID, name, weight)
	})
}

func (c *Client) AddInterest(ctx context.Context, interest string) (domain.Profile, error) {
	return c.editProfile(ctx, func(userID domain.ID) (domain.Profile, error) {
		return c.Profiles.AddInterest(ctx, userID, interest)
	})
}

func (c *Client) RemoveInterest(ctx context.Context, index int) (domain.Profile, error) {
	return c.editProfile(ctx, func(userID domain.ID) (domain.Profile, error) {
		return c.Profiles.RemoveInterest(ctx, userID, index)
	})
}

func (c *Client) AddSkill(ctx context.Context, name string, level int) (domain.Profile, error) {
	return c.editProfile(ctx, func(userID domain.ID) (domain.Profile, error) {
		return c.Profiles.AddSkill(ctx, userID, name, level)
	})
}

func (c *Client) RemoveSkill(ctx context.Context, index int) (domain.Profile, error) {
	return c.editProfile(ctx, func(userID domain.ID) (domain.Profile, error) {
		return c.Profiles.RemoveSkill(ctx, userID, index)
	})
}

func (c *Client) editProfile(ctx context.Context, edit func(userID domain.ID) (domain.Profile, error)) (domain.Profile, error) {
	sess, ok := c.Session.Current()
	if !ok {
		return domain.Profile{}, c.fail(ctx, "Профиль недоступен", domain.ErrAuthRequired)
	}
	p, err := edit(sess.User.ID)
	if err != nil {
		return p, c.fail(ctx, "Не удалось сохранить профиль", err)
	}
	c.surface.Render(ctx, ProfileChanged{Profile: p.Clone()})
	return p, nil
}

func (c *Client) Balance() decimal.Decimal {
	return c.Session.Balance()
}

func (c *Client) LoggedIn() bool {
	return c.Session.Active()
}

// teardown ends the session and clears everything derived from it.
func (c *Client) teardown(ctx context.Context) error {
	err := c.Session.Logout(ctx)
	if err != nil {
		slog.Error("clear persisted session", "error", err)
	}
	c.Chats.Reset()
	c.publishSession(ctx)
	c.surface.Render(ctx, ChatListChanged{})
	return err
}

// fail turns err into a user-visible notice and returns it unchanged.
func (c *Client) fail(ctx context.Context, action string, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.teardown(ctx)
		c.notify(ctx, NoticeError, "Сессия истекла. Войдите снова.")
	case errors.Is(err, domain.ErrInsufficientBalance):
		c.notify(ctx, NoticeWarning, "Недостаточно средств. Пополните баланс.")
	case errors.Is(err, domain.ErrSessionEnded):
		slog.Debug("discarded result after session change", "action", action)
	case errors.Is(err, domain.ErrAuthRequired):
		c.notify(ctx, NoticeError, "Войдите в систему, чтобы продолжить")
	case errors.Is(err, domain.ErrEmptyMessage):
		c.notify(ctx, NoticeInfo, "Введите сообщение или прикрепите файл")
	default:
		slog.Warn("client operation failed", "action", action, "error", err)
		c.notify(ctx, NoticeError, action+": "+describe(err))
	}
	return err
}

func (c *Client) notify(ctx context.Context, level NoticeLevel, text string) {
	c.surface.Render(ctx, Notice{Level: level, Text: text})
}

func (c *Client) publishSession(ctx context.Context) {
	sess, ok := c.Session.Current()
	c.surface.Render(ctx, SessionChanged{LoggedIn: ok, User: sess.User})
	c.surface.Render(ctx, BalanceChanged{Balance: c.Session.Balance()})
}

func describe(err error) string {
	var rf *domain.RequestFailedError
	switch {
	case errors.As(err, &rf):
		return rf.Detail
	case errors.Is(err, domain.ErrNetwork):
		return "нет связи с сервером"
	case errors.Is(err, domain.ErrChatNotFound):
		return "чат не найден"
	case errors.Is(err, domain.ErrPasswordTooShort):
		return fmt.Sprintf("пароль должен быть минимум %d символов", config.MinPasswordLength)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "заполните все поля"
	case errors.Is(err, domain.ErrEmptyTitle):
		return "название не может быть пустым"
	case errors.Is(err, domain.ErrInvalidProfile):
		return "проверьте введённые данные"
	default:
		return err.Error()
	}
}
