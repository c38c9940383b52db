package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/set-night/mindchat/internal/api"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/shopspring/decimal"
)

// fakeBackend is an in-memory Backend. Hooks override the default behavior
// of a call when set.
type fakeBackend struct {
	mu sync.Mutex

	token   string
	user    domain.User
	chats   []api.ChatRecord
	details map[domain.ID]*api.ChatDetail
	models  []api.ModelRecord
	nextID  int

	loginErr  error
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	modelsErr error
	getErrs   []error // consumed one per GetChat call

	onSend func(ctx context.Context, id domain.ID, req api.CompletionRequest) (*api.CompletionResponse, error)
	onGet    func(id domain.ID)
	onCreate func(title string)

	loginCalls  int
	createCalls int
	getCalls    int
	modelsCalls int
	sent        []api.CompletionRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		user:    domain.User{ID: "1", Email: "user@example.com", Balance: decimal.NewFromInt(100)},
		details: make(map[domain.ID]*api.ChatDetail),
		nextID:  100,
	}
}

func (f *fakeBackend) auth(email string) *api.AuthResponse {
	u := f.user
	u.Email = email
	return &api.AuthResponse{AccessToken: "access-" + email, RefreshToken: "refresh", User: u}
}

func (f *fakeBackend) Login(_ context.Context, email, _ string) (*api.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.auth(email), nil
}

func (f *fakeBackend) Register(_ context.Context, email, _ string) (*api.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	return f.auth(email), nil
}

func (f *fakeBackend) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeBackend) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeBackend) ListChats(context.Context) ([]api.ChatRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]api.ChatRecord(nil), f.chats...), nil
}

func (f *fakeBackend) CreateChat(_ context.Context, title string) (*api.ChatRecord, error) {
	if f.onCreate != nil {
		f.onCreate(title)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	rec := api.ChatRecord{ID: domain.ID(strconv.Itoa(f.nextID)), Title: title}
	f.chats = append([]api.ChatRecord{rec}, f.chats...)
	return &rec, nil
}

func (f *fakeBackend) GetChat(_ context.Context, id domain.ID) (*api.ChatDetail, error) {
	if f.onGet != nil {
		f.onGet(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if len(f.getErrs) > 0 {
		err := f.getErrs[0]
		f.getErrs = f.getErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	d, ok := f.details[id]
	if !ok {
		return nil, &domain.RequestFailedError{Status: 404, Detail: "Chat not found"}
	}
	return d, nil
}

func (f *fakeBackend) UpdateChat(_ context.Context, id domain.ID, upd api.ChatUpdate) (*api.ChatRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	rec := api.ChatRecord{ID: id}
	if upd.Title != nil {
		rec.Title = *upd.Title
	}
	if upd.IsFavorite != nil {
		rec.IsFavorite = *upd.IsFavorite
	}
	return &rec, nil
}

func (f *fakeBackend) DeleteChat(context.Context, domain.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeBackend) SendMessage(ctx context.Context, id domain.ID, req api.CompletionRequest) (*api.CompletionResponse, error) {
	f.mu.Lock()
	f.sent = append(f.sent, req)
	hook := f.onSend
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, id, req)
	}
	cost := decimal.RequireFromString("2.5")
	return &api.CompletionResponse{
		Content: fmt.Sprintf("reply to %s", req.Content),
		Tokens:  &domain.TokenUsage{Input: 3, Output: 5},
		Cost:    &cost,
	}, nil
}

func (f *fakeBackend) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// storeExchange records a completion in the chat detail the way the backend
// does.
func (f *fakeBackend) storeExchange(id domain.ID, req api.CompletionRequest, reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		d = &api.ChatDetail{ChatRecord: api.ChatRecord{ID: id}}
		f.details[id] = d
	}
	d.Messages = append(d.Messages,
		api.MessageRecord{Role: domain.RoleUser, Content: req.Content},
		api.MessageRecord{Role: domain.RoleAssistant, Content: reply},
	)
}

func (f *fakeBackend) ListModels(context.Context) ([]api.ModelRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modelsCalls++
	if f.modelsErr != nil {
		return nil, f.modelsErr
	}
	return f.models, nil
}

// recorder is a Surface that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Render(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) notices() []Notice {
	var out []Notice
	for _, ev := range r.all() {
		if n, ok := ev.(Notice); ok {
			out = append(out, n)
		}
	}
	return out
}

func (r *recorder) lastNotice() Notice {
	n := r.notices()
	if len(n) == 0 {
		return Notice{}
	}
	return n[len(n)-1]
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
