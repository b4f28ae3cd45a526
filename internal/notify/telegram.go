package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// telegramMaxText is the Bot API limit for a single message.
const telegramMaxText = 4096

// TelegramSender delivers messages through the Telegram Bot API.
type TelegramSender struct {
	bot *telego.Bot
}

// TelegramOption configures a TelegramSender.
type TelegramOption func(*telegramOptions)

type telegramOptions struct {
	apiServer  string
	httpClient *http.Client
}

// WithAPIServer points the bot at a different Bot API server.
func WithAPIServer(url string) TelegramOption {
	return func(o *telegramOptions) {
		o.apiServer = url
	}
}

// WithHTTPClient sets the HTTP client used for Bot API calls.
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(o *telegramOptions) {
		o.httpClient = client
	}
}

// NewTelegramSender creates a sender for the bot identified by token.
func NewTelegramSender(token string, opts ...TelegramOption) (*TelegramSender, error) {
	o := &telegramOptions{}
	for _, opt := range opts {
		opt(o)
	}

	botOpts := []telego.BotOption{telego.WithDiscardLogger()}
	if o.apiServer != "" {
		botOpts = append(botOpts, telego.WithAPIServer(o.apiServer))
	}
	if o.httpClient != nil {
		botOpts = append(botOpts, telego.WithHTTPClient(o.httpClient))
	}

	bot, err := telego.NewBot(token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot; %w", err)
	}

	return &TelegramSender{bot: bot}, nil
}

// Send posts text to destination, a numeric chat id or an @channel username.
func (s *TelegramSender) Send(ctx context.Context, destination, text string) error {
	chatID, err := ParseChatID(destination)
	if err != nil {
		return err
	}

	if _, err := s.bot.SendMessage(ctx, tu.Message(chatID, truncate(text, telegramMaxText))); err != nil {
		return fmt.Errorf("telegram sendMessage failed; %w", err)
	}
	return nil
}

// ParseChatID converts a configured destination into a Bot API chat id.
func ParseChatID(destination string) (telego.ChatID, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return telego.ChatID{}, fmt.Errorf("empty chat destination")
	}

	if strings.HasPrefix(destination, "@") {
		if len(destination) == 1 {
			return telego.ChatID{}, fmt.Errorf("invalid chat destination %q", destination)
		}
		return tu.Username(destination), nil
	}

	id, err := strconv.ParseInt(destination, 10, 64)
	if err != nil {
		return telego.ChatID{}, fmt.Errorf("invalid chat destination %q; must be a numeric id or @username", destination)
	}
	return tu.ID(id), nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
