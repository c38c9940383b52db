package config

import "time"

const (
	// HTTP request timeout towards the backend
	RequestTimeout = 90 * time.Second

	// Title of a chat created implicitly by the first message
	ChatTitleMaxRunes = 50

	// Default title for explicitly created chats
	DefaultChatTitle = "Новый чат"

	// Chat list preview length
	PreviewMaxRunes = 50

	// Local currency units per backend price unit
	CurrencyRate = 95

	// Minimum password length enforced before registration
	MinPasswordLength = 8

	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Typing action refresh period
	TypingInterval = 4 * time.Second

	// Chats per page in the Telegram chat list
	ChatsPerPage = 8

	// Burst of the per-chat rate limiter
	RateLimitBurst = 3

	// Per-chat limiters unused for this long are dropped
	RateLimiterIdleTTL = 10 * time.Minute

	// Star level of a skill added without one
	DefaultSkillLevel = 3

	// Storage pool sizes
	DBMaxConns = 20
	DBMinConns = 2
)

// Persisted client state keys.
const (
	KeyAuthToken    = "authToken"
	KeyRefreshToken = "refreshToken"
	KeyCurrentUser  = "currentUser"
	KeyTheme        = "theme"
	KeyProfile      = "profile"
)

// Themes available to the client.
var Themes = []string{"dark", "light"}
