package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/mindchat/internal/api"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
)

// ChatBackend is the chat and completion part of the backend.
type ChatBackend interface {
	ListChats(ctx context.Context) ([]api.ChatRecord, error)
	CreateChat(ctx context.Context, title string) (*api.ChatRecord, error)
	GetChat(ctx context.Context, id domain.ID) (*api.ChatDetail, error)
	UpdateChat(ctx context.Context, id domain.ID, update api.ChatUpdate) (*api.ChatRecord, error)
	DeleteChat(ctx context.Context, id domain.ID) error
	SendMessage(ctx context.Context, id domain.ID, req api.CompletionRequest) (*api.CompletionResponse, error)
}

// ChatManager owns the chat list and mediates between optimistic local
// edits and the backend. Surfaces only ever get copies of its chats.
type ChatManager struct {
	backend ChatBackend
	session *SessionStore
	surface Surface
	now     func() time.Time
	slots   *chatSlots

	mu            sync.Mutex
	chats         []*domain.Chat // most recent first
	currentID     domain.ID
	pending       []domain.Attachment
	selectedModel string
}

func NewChatManager(backend ChatBackend, session *SessionStore, surface Surface, defaultModel string) *ChatManager {
	if surface == nil {
		surface = nopSurface{}
	}
	return &ChatManager{
		backend:       backend,
		session:       session,
		surface:       surface,
		now:           time.Now,
		slots:         newChatSlots(),
		selectedModel: defaultModel,
	}
}

// LoadChats replaces the chat list with the server's. Messages are fetched
// lazily by OpenChat.
func (m *ChatManager) LoadChats(ctx context.Context) error {
	if !m.session.Active() {
		m.Reset()
		m.publishList(ctx)
		return nil
	}

	gen := m.session.Generation()
	records, err := m.backend.ListChats(ctx)
	if err != nil {
		m.Reset()
		m.publishList(ctx)
		return err
	}
	if !m.session.Valid(gen) {
		return domain.ErrSessionEnded
	}

	chats := make([]*domain.Chat, len(records))
	for i, r := range records {
		chats[i] = chatFromRecord(r, domain.Unloaded)
	}

	m.mu.Lock()
	m.chats = chats
	if m.find(m.currentID) == nil {
		m.currentID = ""
	}
	m.mu.Unlock()

	m.publishList(ctx)
	return nil
}

func (m *ChatManager) CreateChat(ctx context.Context, titleHint string) (domain.Chat, error) {
	if !m.session.Active() {
		return domain.Chat{}, domain.ErrAuthRequired
	}
	title := strings.TrimSpace(titleHint)
	if title == "" {
		title = config.DefaultChatTitle
	}

	gen := m.session.Generation()
	record, err := m.backend.CreateChat(ctx, title)
	if err != nil {
		return domain.Chat{}, err
	}
	if !m.session.Valid(gen) {
		return domain.Chat{}, domain.ErrSessionEnded
	}

	// A chat that was just created has nothing to fetch.
	chat := chatFromRecord(*record, domain.Loaded)
	if chat.Title == "" {
		chat.Title = title
	}
	now := m.now()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	if chat.UpdatedAt.IsZero() {
		chat.UpdatedAt = chat.CreatedAt
	}

	m.mu.Lock()
	m.chats = append([]*domain.Chat{chat}, m.chats...)
	m.currentID = chat.ID
	snapshot := chat.Clone()
	m.mu.Unlock()

	m.publishList(ctx)
	m.surface.Render(ctx, ChatOpened{Chat: snapshot})
	return snapshot, nil
}

// OpenChat makes id current and fetches its messages the first time. The
// fetch holds the chat's slot, so sends to it wait for the history. A failed
// fetch leaves the chat Unloaded so the next open retries.
func (m *ChatManager) OpenChat(ctx context.Context, id domain.ID) (domain.Chat, error) {
	m.mu.Lock()
	chat := m.find(id)
	if chat == nil {
		m.mu.Unlock()
		return domain.Chat{}, fmt.Errorf("%w: %s", domain.ErrChatNotFound, id)
	}
	m.currentID = id
	fetch := chat.State == domain.Unloaded && m.session.Active()
	snapshot := chat.Clone()
	m.mu.Unlock()

	if !fetch {
		m.surface.Render(ctx, ChatOpened{Chat: snapshot})
		return snapshot, nil
	}

	release, err := m.slots.acquire(ctx, id)
	if err != nil {
		return domain.Chat{}, err
	}
	defer release()

	m.mu.Lock()
	chat = m.find(id)
	if chat == nil {
		m.mu.Unlock()
		return domain.Chat{}, fmt.Errorf("%w: %s", domain.ErrChatNotFound, id)
	}
	if chat.State != domain.Unloaded {
		// Loaded by an open that held the slot before us.
		snapshot = chat.Clone()
		m.mu.Unlock()
		m.surface.Render(ctx, ChatOpened{Chat: snapshot})
		return snapshot, nil
	}
	chat.State = domain.Loading
	m.mu.Unlock()

	gen := m.session.Generation()
	m.surface.Render(ctx, LoadingStarted{ChatID: id})
	detail, err := m.backend.GetChat(ctx, id)
	m.surface.Render(ctx, LoadingFinished{ChatID: id})

	m.mu.Lock()
	chat = m.find(id)
	switch {
	case err != nil || !m.session.Valid(gen):
		if chat != nil && chat.State == domain.Loading {
			chat.State = domain.Unloaded
		}
		m.mu.Unlock()
		if err == nil {
			err = domain.ErrSessionEnded
		}
		return domain.Chat{}, err
	case chat == nil:
		m.mu.Unlock()
		return domain.Chat{}, fmt.Errorf("%w: %s", domain.ErrChatNotFound, id)
	}

	// No send ran while the slot was held, so the server history is complete.
	messages := make([]domain.Message, 0, len(detail.Messages))
	for _, r := range detail.Messages {
		messages = append(messages, messageFromRecord(r))
	}
	chat.Messages = messages
	if detail.Title != "" {
		chat.Title = detail.Title
	}
	chat.IsFavorite = detail.IsFavorite
	if detail.UpdatedAt.After(chat.UpdatedAt) {
		chat.UpdatedAt = detail.UpdatedAt.Time
	}
	chat.State = domain.Loaded
	snapshot = chat.Clone()
	m.mu.Unlock()

	m.surface.Render(ctx, ChatOpened{Chat: snapshot})
	return snapshot, nil
}

// implicitChat returns the chat a send without a current chat goes to. It
// creates one titled after content unless a concurrent send already did.
func (m *ChatManager) implicitChat(ctx context.Context, content string) (domain.ID, error) {
	release, err := m.slots.acquire(ctx, newChatSlot)
	if err != nil {
		return "", err
	}
	defer release()

	m.mu.Lock()
	if chat := m.find(m.currentID); chat != nil {
		id := chat.ID
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	chat, err := m.CreateChat(ctx, truncateRunes(content, config.ChatTitleMaxRunes))
	if err != nil {
		return "", err
	}
	return chat.ID, nil
}

// SendMessage appends the user message optimistically, asks the backend for
// a completion and appends the assistant reply. The user message is never
// rolled back. Sends on the same chat are serialized.
func (m *ChatManager) SendMessage(ctx context.Context, content string, attachments ...domain.Attachment) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if !m.session.Active() {
		return domain.Message{}, domain.ErrAuthRequired
	}

	m.mu.Lock()
	atts := append(append([]domain.Attachment(nil), m.pending...), attachments...)
	if content == "" && len(atts) == 0 {
		m.mu.Unlock()
		return domain.Message{}, domain.ErrEmptyMessage
	}
	m.pending = nil
	id := m.currentID
	if m.find(id) == nil {
		id = ""
	}
	m.mu.Unlock()

	if id == "" {
		var err error
		id, err = m.implicitChat(ctx, content)
		if err != nil {
			m.restorePending(atts[:len(atts)-len(attachments)])
			return domain.Message{}, err
		}
	}

	release, err := m.slots.acquire(ctx, id)
	if err != nil {
		m.restorePending(atts[:len(atts)-len(attachments)])
		return domain.Message{}, err
	}
	defer release()

	gen := m.session.Generation()
	userMsg := domain.Message{
		ID:          uuid.NewString(),
		Role:        domain.RoleUser,
		Content:     content,
		Timestamp:   m.now(),
		Attachments: atts,
	}

	m.mu.Lock()
	chat := m.find(id)
	if chat == nil {
		m.mu.Unlock()
		return domain.Message{}, fmt.Errorf("%w: %s", domain.ErrChatNotFound, id)
	}
	chat.Messages = append(chat.Messages, userMsg)
	model := m.selectedModel
	pending := append([]domain.Attachment(nil), m.pending...)
	m.mu.Unlock()

	m.surface.Render(ctx, AttachmentsChanged{Pending: pending})
	m.surface.Render(ctx, MessageAppended{ChatID: id, Message: userMsg})
	m.surface.Render(ctx, LoadingStarted{ChatID: id})

	resp, err := m.backend.SendMessage(ctx, id, api.CompletionRequest{
		Content:     content,
		Model:       model,
		Attachments: atts,
	})
	m.surface.Render(ctx, LoadingFinished{ChatID: id})
	if err != nil {
		return domain.Message{}, err
	}
	if !m.session.Valid(gen) {
		return domain.Message{}, domain.ErrSessionEnded
	}

	now := m.now()
	reply := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   resp.Content,
		Model:     model,
		Timestamp: now,
		Tokens:    resp.Tokens,
		Cost:      resp.Cost,
	}

	m.mu.Lock()
	chat = m.find(id)
	if chat != nil {
		chat.Messages = append(chat.Messages, reply)
		if now.After(chat.UpdatedAt) {
			chat.UpdatedAt = now
		}
		m.moveToFront(id)
	}
	m.mu.Unlock()

	if resp.Cost != nil {
		balance, err := m.session.Debit(ctx, gen, *resp.Cost)
		if err != nil {
			slog.Warn("debit local balance", "chat_id", id, "error", err)
		} else {
			m.surface.Render(ctx, BalanceChanged{Balance: balance})
		}
	}

	if chat == nil {
		return reply, fmt.Errorf("%w: %s", domain.ErrChatNotFound, id)
	}
	m.surface.Render(ctx, MessageAppended{ChatID: id, Message: reply})
	m.publishList(ctx)
	return reply, nil
}

func (m *ChatManager) DeleteChat(ctx context.Context, id domain.ID) error {
	if err := m.requireChat(id); err != nil {
		return err
	}
	gen := m.session.Generation()
	if err := m.backend.DeleteChat(ctx, id); err != nil {
		return err
	}
	if !m.session.Valid(gen) {
		return domain.ErrSessionEnded
	}

	m.mu.Lock()
	for i, c := range m.chats {
		if c.ID == id {
			m.chats = append(m.chats[:i], m.chats[i+1:]...)
			break
		}
	}
	if m.currentID == id {
		m.currentID = ""
	}
	m.mu.Unlock()

	m.publishList(ctx)
	return nil
}

func (m *ChatManager) RenameChat(ctx context.Context, id domain.ID, title string) (domain.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Chat{}, domain.ErrEmptyTitle
	}
	return m.update(ctx, id, api.ChatUpdate{Title: &title}, func(c *domain.Chat, r *api.ChatRecord) {
		c.Title = title
		if r.Title != "" {
			c.Title = r.Title
		}
	})
}

func (m *ChatManager) ToggleFavorite(ctx context.Context, id domain.ID) (domain.Chat, error) {
	m.mu.Lock()
	chat := m.find(id)
	var favorite bool
	if chat != nil {
		favorite = !chat.IsFavorite
	}
	m.mu.Unlock()

	return m.update(ctx, id, api.ChatUpdate{IsFavorite: &favorite}, func(c *domain.Chat, _ *api.ChatRecord) {
		c.IsFavorite = favorite
	})
}

func (m *ChatManager) update(ctx context.Context, id domain.ID, upd api.ChatUpdate, apply func(*domain.Chat, *api.ChatRecord)) (domain.Chat, error) {
	if err := m.requireChat(id); err != nil {
		return domain.Chat{}, err
	}
	gen := m.session.Generation()
	record, err := m.backend.UpdateChat(ctx, id, upd)
	if err != nil {
		return domain.Chat{}, err
	}
	if !m.session.Valid(gen) {
		return domain.Chat{}, domain.ErrSessionEnded
	}

	m.mu.Lock()
	chat := m.find(id)
	if chat == nil {
		m.mu.Unlock()
		return domain.Chat{}, fmt.Errorf("%w: %s", domain.ErrChatNotFound, id)
	}
	apply(chat, record)
	if record.UpdatedAt.After(chat.UpdatedAt) {
		chat.UpdatedAt = record.UpdatedAt.Time
	}
	snapshot := chat.Clone()
	m.mu.Unlock()

	m.publishList(ctx)
	return snapshot, nil
}

func (m *ChatManager) requireChat(id domain.ID) error {
	if !m.session.Active() {
		return domain.ErrAuthRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(id) == nil {
		return fmt.Errorf("%w: %s", domain.ErrChatNotFound, id)
	}
	return nil
}

func (m *ChatManager) SelectModel(id string) {
	m.mu.Lock()
	m.selectedModel = id
	m.mu.Unlock()
}

func (m *ChatManager) SelectedModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedModel
}

func (m *ChatManager) AddAttachment(a domain.Attachment) []domain.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, a)
	return append([]domain.Attachment(nil), m.pending...)
}

func (m *ChatManager) RemoveAttachment(index int) ([]domain.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.pending) {
		return nil, fmt.Errorf("%w: %d", domain.ErrAttachmentNotFound, index)
	}
	m.pending = append(m.pending[:index], m.pending[index+1:]...)
	return append([]domain.Attachment(nil), m.pending...), nil
}

func (m *ChatManager) PendingAttachments() []domain.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Attachment(nil), m.pending...)
}

func (m *ChatManager) restorePending(atts []domain.Attachment) {
	if len(atts) == 0 {
		return
	}
	m.mu.Lock()
	m.pending = append(append([]domain.Attachment(nil), atts...), m.pending...)
	m.mu.Unlock()
}

// Chats returns copies of all chats, most recent first.
func (m *ChatManager) Chats() []domain.Chat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *ChatManager) Chat(id domain.ID) (domain.Chat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.find(id); c != nil {
		return c.Clone(), true
	}
	return domain.Chat{}, false
}

func (m *ChatManager) Current() (domain.Chat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.find(m.currentID); c != nil {
		return c.Clone(), true
	}
	return domain.Chat{}, false
}

// Search matches query case-insensitively against titles and loaded
// message contents.
func (m *ChatManager) Search(query string) []domain.Chat {
	query = strings.ToLower(strings.TrimSpace(query))
	m.mu.Lock()
	defer m.mu.Unlock()
	if query == "" {
		return m.snapshotLocked()
	}

	var out []domain.Chat
	for _, c := range m.chats {
		if strings.Contains(strings.ToLower(c.Title), query) || containsMessage(c, query) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func (m *ChatManager) Favorites() []domain.Chat {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Chat
	for _, c := range m.chats {
		if c.IsFavorite {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Reset forgets every chat, the current selection and pending attachments.
func (m *ChatManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats = nil
	m.currentID = ""
	m.pending = nil
}

func (m *ChatManager) publishList(ctx context.Context) {
	m.mu.Lock()
	ev := ChatListChanged{Chats: m.snapshotLocked(), CurrentID: m.currentID}
	m.mu.Unlock()
	m.surface.Render(ctx, ev)
}

func (m *ChatManager) snapshotLocked() []domain.Chat {
	out := make([]domain.Chat, len(m.chats))
	for i, c := range m.chats {
		out[i] = c.Clone()
	}
	return out
}

func (m *ChatManager) find(id domain.ID) *domain.Chat {
	if id == "" {
		return nil
	}
	for _, c := range m.chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *ChatManager) moveToFront(id domain.ID) {
	for i, c := range m.chats {
		if c.ID == id {
			copy(m.chats[1:i+1], m.chats[:i])
			m.chats[0] = c
			return
		}
	}
}

func containsMessage(c *domain.Chat, query string) bool {
	for _, msg := range c.Messages {
		if strings.Contains(strings.ToLower(msg.Content), query) {
			return true
		}
	}
	return false
}

func chatFromRecord(r api.ChatRecord, state domain.LoadState) *domain.Chat {
	return &domain.Chat{
		ID:         r.ID,
		Title:      r.Title,
		CreatedAt:  r.CreatedAt.Time,
		UpdatedAt:  r.UpdatedAt.Time,
		IsFavorite: r.IsFavorite,
		State:      state,
	}
}

func messageFromRecord(r api.MessageRecord) domain.Message {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      r.Role,
		Content:   r.Content,
		Model:     r.ModelUsed,
		Timestamp: r.CreatedAt.Time,
		Cost:      r.Cost,
	}
	if r.TokensInput != nil || r.TokensOutput != nil {
		msg.Tokens = &domain.TokenUsage{}
		if r.TokensInput != nil {
			msg.Tokens.Input = *r.TokensInput
		}
		if r.TokensOutput != nil {
			msg.Tokens.Output = *r.TokensOutput
		}
	}
	return msg
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
