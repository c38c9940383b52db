package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/set-night/mindchat/internal/api"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/service"
	"github.com/set-night/mindchat/internal/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPassword(t *testing.T) {
	var out bytes.Buffer
	pw, err := readPassword(strings.NewReader("ignored\n"), &out, "given")
	require.NoError(t, err)
	assert.Equal(t, "given", pw)
	assert.Empty(t, out.String())

	pw, err = readPassword(strings.NewReader("  secret1\n"), &out, "")
	require.NoError(t, err)
	assert.Equal(t, "secret1", pw)
	assert.Equal(t, "Пароль: ", out.String())

	pw, err = readPassword(strings.NewReader("no-newline"), &bytes.Buffer{}, "")
	require.NoError(t, err)
	assert.Equal(t, "no-newline", pw)
}

func TestRepl(t *testing.T) {
	var completion api.CompletionRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","user":{"id":1,"email":"a@b.c","balance":10}}`))
	})
	mux.HandleFunc("GET /chats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("POST /chats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":1,"title":"hello"}`))
	})
	mux.HandleFunc("POST /llm/chat/1/message", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&completion))
		w.Write([]byte(`{"content":"hi there","cost":0.5}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	var shown bytes.Buffer
	models := service.NewModelCatalog()
	client := service.New(service.Deps{
		Backend:      api.NewClient(srv.URL),
		Store:        repository.NewMemoryKV(),
		Surface:      terminal.NewPrinter(&shown, &bytes.Buffer{}, models),
		Models:       models,
		DefaultModel: "gpt-4-turbo",
	})
	require.NoError(t, client.Login(ctx, "a@b.c", "password1"))

	in := strings.NewReader("\n/model gpt-3.5-turbo\nhello\n/quit\nnever sent\n")
	var prompt bytes.Buffer
	require.NoError(t, repl(ctx, client, in, &prompt))

	assert.Equal(t, "gpt-3.5-turbo", completion.Model)
	assert.Equal(t, "hello", completion.Content)
	assert.Contains(t, shown.String(), "Модель: 🔹 GPT-3.5 Turbo")
	assert.Contains(t, shown.String(), "hi there")
	assert.Equal(t, 4, strings.Count(prompt.String(), "> "))
}

func TestProfileActions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","user":{"id":7,"email":"a@b.c","balance":10}}`))
	})
	mux.HandleFunc("GET /chats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	var shown bytes.Buffer
	models := service.NewModelCatalog()
	client := service.New(service.Deps{
		Backend:      api.NewClient(srv.URL),
		Store:        repository.NewMemoryKV(),
		Surface:      terminal.NewPrinter(&shown, &bytes.Buffer{}, models),
		Models:       models,
		DefaultModel: "gpt-4-turbo",
	})
	require.NoError(t, client.Login(ctx, "a@b.c", "password1"))

	p, err := setProfileValue(ctx, client, []string{"свобода", "40"})
	require.NoError(t, err)
	assert.Equal(t, 40, p.Values[1].Value)
	assert.Contains(t, shown.String(), "Ценности:")

	p, err = byPosition((*service.Client).RemoveSkill)(ctx, client, []string{"1"})
	require.NoError(t, err)
	require.Len(t, p.Skills, 2)
	assert.Equal(t, "JavaScript", p.Skills[0].Name)

	_, err = setProfileValue(ctx, client, []string{"Свобода", "много"})
	assert.ErrorIs(t, err, errProfileArg)
	_, err = byPosition((*service.Client).RemoveInterest)(ctx, client, []string{"первый"})
	assert.ErrorIs(t, err, errProfileArg)
}
