package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/set-night/mindchat/internal/api"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	client  *Client
	backend *fakeBackend
	kv      *repository.MemoryKV
	surface *recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend: newFakeBackend(),
		kv:      repository.NewMemoryKV(),
		surface: &recorder{},
	}
	h.client = New(Deps{
		Backend:      h.backend,
		Store:        h.kv,
		Surface:      h.surface,
		DefaultModel: "m1",
		Clock:        fixedClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
	})
	return h
}

func loggedIn(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	require.NoError(t, h.client.Login(context.Background(), "user@example.com", "password1"))
	return h
}

func storedUser(t *testing.T, kv repository.KV) (domain.User, bool) {
	t.Helper()
	raw, ok, err := kv.Get(context.Background(), config.KeyCurrentUser)
	require.NoError(t, err)
	if !ok {
		return domain.User{}, false
	}
	var u domain.User
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	return u, true
}

func TestClient_SendDebitsBalanceAndPersists(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()

	reply, err := h.client.SendMessage(ctx, "hi")
	require.NoError(t, err)

	assert.Equal(t, "reply to hi", reply.Content)
	assert.Equal(t, "m1", reply.Model)
	assert.True(t, h.client.Balance().Equal(decimal.RequireFromString("97.5")))

	u, ok := storedUser(t, h.kv)
	require.True(t, ok)
	assert.True(t, u.Balance.Equal(decimal.RequireFromString("97.5")))

	chats := h.client.Chats.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, "hi", chats[0].Title)
	require.Len(t, chats[0].Messages, 2)
	assert.Equal(t, domain.RoleUser, chats[0].Messages[0].Role)
	assert.Equal(t, domain.RoleAssistant, chats[0].Messages[1].Role)
	assert.Equal(t, 8, chats[0].Messages[1].Tokens.Total())

	var sawBalance bool
	for _, ev := range h.surface.all() {
		if b, ok := ev.(BalanceChanged); ok && b.Balance.Equal(decimal.RequireFromString("97.5")) {
			sawBalance = true
		}
	}
	assert.True(t, sawBalance)
}

func TestClient_ImplicitChatTitleIsTruncated(t *testing.T) {
	h := loggedIn(t)
	long := "Это очень длинное первое сообщение, которое точно длиннее пятидесяти символов"

	_, err := h.client.SendMessage(context.Background(), long)
	require.NoError(t, err)

	chat, ok := h.client.Chats.Current()
	require.True(t, ok)
	assert.Equal(t, string([]rune(long)[:config.ChatTitleMaxRunes]), chat.Title)
}

func TestClient_UnauthorizedTearsDown(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()
	_, err := h.client.SendMessage(ctx, "first")
	require.NoError(t, err)

	h.backend.onSend = func(context.Context, domain.ID, api.CompletionRequest) (*api.CompletionResponse, error) {
		return nil, domain.ErrUnauthorized
	}
	_, err = h.client.SendMessage(ctx, "second")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.False(t, h.client.LoggedIn())
	assert.True(t, h.client.Balance().IsZero())
	assert.Empty(t, h.client.Chats.Chats())
	assert.Empty(t, h.backend.Token())
	_, ok := storedUser(t, h.kv)
	assert.False(t, ok)
	_, ok, _ = h.kv.Get(ctx, config.KeyAuthToken)
	assert.False(t, ok)

	assert.Equal(t, Notice{Level: NoticeError, Text: "Сессия истекла. Войдите снова."}, h.surface.lastNotice())
}

func TestClient_InsufficientBalanceKeepsSession(t *testing.T) {
	h := loggedIn(t)
	h.backend.onSend = func(context.Context, domain.ID, api.CompletionRequest) (*api.CompletionResponse, error) {
		return nil, domain.ErrInsufficientBalance
	}

	_, err := h.client.SendMessage(context.Background(), "expensive")
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.True(t, h.client.LoggedIn())
	assert.True(t, h.client.Balance().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, Notice{Level: NoticeWarning, Text: "Недостаточно средств. Пополните баланс."}, h.surface.lastNotice())

	// The optimistic user message stays.
	chat, ok := h.client.Chats.Current()
	require.True(t, ok)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, "expensive", chat.Messages[0].Content)
}

func TestClient_RequestFailedNoticeUsesDetail(t *testing.T) {
	h := loggedIn(t)
	h.backend.onSend = func(context.Context, domain.ID, api.CompletionRequest) (*api.CompletionResponse, error) {
		return nil, &domain.RequestFailedError{Status: 500, Detail: "Model overloaded"}
	}

	_, err := h.client.SendMessage(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, Notice{Level: NoticeError, Text: "Ошибка: Model overloaded"}, h.surface.lastNotice())
}

func TestClient_EmptyMessageAndAuthRequired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.SendMessage(ctx, "hi")
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	require.NoError(t, h.client.Login(ctx, "user@example.com", "password1"))
	_, err = h.client.SendMessage(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	assert.Empty(t, h.backend.sent)
}

func TestClient_ResultAfterTeardownIsDiscarded(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()

	h.backend.onSend = func(ctx context.Context, _ domain.ID, _ api.CompletionRequest) (*api.CompletionResponse, error) {
		// The user logs out while the completion is in flight.
		require.NoError(t, h.client.Logout(ctx))
		cost := decimal.NewFromInt(1)
		return &api.CompletionResponse{Content: "late", Cost: &cost}, nil
	}

	_, err := h.client.SendMessage(ctx, "hi")
	require.ErrorIs(t, err, domain.ErrSessionEnded)
	assert.False(t, h.client.LoggedIn())
	assert.Empty(t, h.client.Chats.Chats())
	_, ok := storedUser(t, h.kv)
	assert.False(t, ok)
}

func TestClient_SendsAreSerializedPerChat(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()
	chat, err := h.client.CreateChat(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultChatTitle, chat.Title)

	var inFlight, maxInFlight atomic.Int32
	h.backend.onSend = func(context.Context, domain.ID, api.CompletionRequest) (*api.CompletionResponse, error) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return &api.CompletionResponse{Content: "ok"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.client.SendMessage(ctx, "hi")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load())
	got, ok := h.client.Chats.Chat(chat.ID)
	require.True(t, ok)
	require.Len(t, got.Messages, 8)
}

func TestClient_LoginFailureNotice(t *testing.T) {
	h := newHarness(t)
	h.backend.loginErr = &domain.RequestFailedError{Status: 400, Detail: "Incorrect email or password"}

	err := h.client.Login(context.Background(), "user@example.com", "wrong-pass")
	require.Error(t, err)
	assert.False(t, h.client.LoggedIn())
	assert.Equal(t, Notice{Level: NoticeError, Text: "Ошибка входа: Incorrect email or password"}, h.surface.lastNotice())
}

func TestClient_RegisterRejectsShortPassword(t *testing.T) {
	h := newHarness(t)

	err := h.client.Register(context.Background(), "user@example.com", "short")
	require.ErrorIs(t, err, domain.ErrPasswordTooShort)
	assert.Zero(t, h.backend.loginCalls)
	assert.Equal(t, "Ошибка регистрации: пароль должен быть минимум 8 символов", h.surface.lastNotice().Text)
}

func TestClient_StartRestoresSessionAndLoadsChats(t *testing.T) {
	ctx := context.Background()
	first := loggedIn(t)

	backend := newFakeBackend()
	backend.chats = []api.ChatRecord{{ID: "5", Title: "old"}}
	backend.models = []api.ModelRecord{{ID: "x1", Name: "X One"}}
	surface := &recorder{}
	second := New(Deps{Backend: backend, Store: first.kv, Surface: surface})

	require.NoError(t, second.Start(ctx))
	assert.True(t, second.LoggedIn())
	assert.Equal(t, "access-user@example.com", backend.Token())
	require.Len(t, second.Chats.Chats(), 1)
	assert.Equal(t, domain.Unloaded, second.Chats.Chats()[0].State)
	assert.Equal(t, "X One", second.Models.Name("x1"))

	var sawSession bool
	for _, ev := range surface.all() {
		if s, ok := ev.(SessionChanged); ok && s.LoggedIn {
			sawSession = true
		}
	}
	assert.True(t, sawSession)
}

func TestClient_StartWithoutSessionLoadsOnlyModels(t *testing.T) {
	h := newHarness(t)
	h.backend.modelsErr = errors.New("boom")

	require.NoError(t, h.client.Start(context.Background()))
	assert.False(t, h.client.LoggedIn())
	assert.Len(t, h.client.Models.List(), len(domain.DefaultModels()))
	assert.Equal(t, 1, h.backend.modelsCalls)
}

func TestClient_OpenChatRetriesAfterFailure(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()
	h.backend.chats = []api.ChatRecord{{ID: "7", Title: "remote"}}
	h.backend.details["7"] = &api.ChatDetail{
		ChatRecord: api.ChatRecord{ID: "7", Title: "remote"},
		Messages: []api.MessageRecord{
			{Role: domain.RoleUser, Content: "q"},
			{Role: domain.RoleAssistant, Content: "a", ModelUsed: "m1"},
		},
	}
	h.backend.getErrs = []error{&domain.NetworkError{Err: errors.New("offline")}}
	require.NoError(t, h.client.Chats.LoadChats(ctx))

	_, err := h.client.OpenChat(ctx, "7")
	require.ErrorIs(t, err, domain.ErrNetwork)
	c, _ := h.client.Chats.Chat("7")
	assert.Equal(t, domain.Unloaded, c.State)
	assert.Equal(t, "Не удалось загрузить сообщения: нет связи с сервером", h.surface.lastNotice().Text)

	opened, err := h.client.OpenChat(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, domain.Loaded, opened.State)
	require.Len(t, opened.Messages, 2)

	_, err = h.client.OpenChat(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, 2, h.backend.getCalls)
}

func TestClient_SelectModelValidatesAgainstCatalog(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()

	require.NoError(t, h.client.SelectModel(ctx, "claude-3-opus"))
	assert.Equal(t, "claude-3-opus", h.client.Chats.SelectedModel())

	err := h.client.SelectModel(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrUnknownModel)
	assert.Equal(t, "claude-3-opus", h.client.Chats.SelectedModel())

	_, err = h.client.SendMessage(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "claude-3-opus", h.backend.sent[0].Model)
}

func TestClient_ThemePersists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.Equal(t, "dark", h.client.Session.Theme(ctx))
	theme, err := h.client.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "light", theme)
	assert.Equal(t, "light", h.client.Session.Theme(ctx))

	assert.ErrorIs(t, h.client.SetTheme(ctx, "neon"), domain.ErrUnknownTheme)
	assert.Equal(t, "light", h.client.Session.Theme(ctx))
}

func TestClient_LogoutIsIdempotent(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()

	require.NoError(t, h.client.Logout(ctx))
	require.NoError(t, h.client.Logout(ctx))
	assert.False(t, h.client.LoggedIn())
	assert.Equal(t, Notice{Level: NoticeInfo, Text: "Вы вышли из системы"}, h.surface.lastNotice())
}

func openedChatUpdatedAt(t *testing.T, h *harness, id domain.ID, updated time.Time) {
	t.Helper()
	rec := api.ChatRecord{ID: id, Title: "old chat", UpdatedAt: api.Timestamp{Time: updated}}
	seedChats(t, h, rec)
	h.backend.details[id] = &api.ChatDetail{ChatRecord: rec}
	_, err := h.client.OpenChat(context.Background(), id)
	require.NoError(t, err)
}

func TestClient_SendSetsUpdatedAtToReplyTime(t *testing.T) {
	h := loggedIn(t)
	openedChatUpdatedAt(t, h, "5", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	reply, err := h.client.SendMessage(context.Background(), "hi")
	require.NoError(t, err)

	chat, ok := h.client.Chats.Chat("5")
	require.True(t, ok)
	assert.True(t, chat.UpdatedAt.Equal(reply.Timestamp))
}

func TestClient_NetworkFailureKeepsUserMessageAndUpdatedAt(t *testing.T) {
	h := loggedIn(t)
	before := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	openedChatUpdatedAt(t, h, "5", before)
	h.backend.onSend = func(context.Context, domain.ID, api.CompletionRequest) (*api.CompletionResponse, error) {
		return nil, &domain.NetworkError{Err: errors.New("connection refused")}
	}

	_, err := h.client.SendMessage(context.Background(), "hi")
	require.ErrorIs(t, err, domain.ErrNetwork)

	chat, ok := h.client.Chats.Chat("5")
	require.True(t, ok)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, domain.RoleUser, chat.Messages[0].Role)
	assert.True(t, chat.UpdatedAt.Equal(before))
	assert.True(t, h.client.Balance().Equal(decimal.NewFromInt(100)))
}

func TestClient_LogoutThenRestoreIsEmpty(t *testing.T) {
	h := loggedIn(t)
	ctx := context.Background()
	_, err := h.client.SendMessage(ctx, "hi")
	require.NoError(t, err)
	require.NoError(t, h.client.Logout(ctx))

	restored, err := h.client.Session.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Empty(t, h.client.Chats.Chats())
	assert.True(t, h.client.Balance().IsZero())

	// A fresh client over the same storage starts out empty too.
	next := New(Deps{Backend: h.backend, Store: h.kv})
	require.NoError(t, next.Start(ctx))
	assert.False(t, next.LoggedIn())
	assert.Empty(t, next.Chats.Chats())
	assert.True(t, next.Balance().IsZero())
}
