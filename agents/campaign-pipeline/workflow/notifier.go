// Package workflow notifies stakeholders about campaign progress and
// simulates the creative approval step.
package workflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"creative-pipeline/shared/config"
	"creative-pipeline/shared/email"

	"github.com/osteele/liquid"
	"go.uber.org/zap"
)

// Notifier delivers a message addressed to a stakeholder role.
type Notifier interface {
	Notify(ctx context.Context, role, message string) error
}

// NewNotifier builds the configured backend.
func NewNotifier(cfg *config.Config, logger *zap.Logger) (Notifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Notifications.Backend {
	case "", "log":
		return NewLogNotifier(logger), nil
	case "email":
		n, err := NewEmailNotifier(email.NewSender(&cfg.Email))
		if err != nil {
			return nil, err
		}
		return n, nil
	case "telegram":
		t := cfg.Notifications.Telegram
		n, err := NewTelegramNotifier(t.APIURL, t.BotToken, t.ChatID, nil)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown notifications backend %q", cfg.Notifications.Backend)
	}
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, role, message string) error {
	n.logger.Info(fmt.Sprintf("[%s] %s", role, message), zap.String("role", role))
	return nil
}

var engine = liquid.NewEngine()

const (
	emailSubjectTemplate = `[{{ role }}] {{ message | truncate: 80 }}`
	emailBodyTemplate    = `<html><body>
<h2>{{ role }}</h2>
<p>{{ message | escape }}</p>
<p style="color:#888">Sent by the creative pipeline at {{ sent_at }}</p>
</body></html>`
	telegramTemplate = `*{{ role }}*: {{ message }}`
)

func render(tmpl string, role, message string) (string, error) {
	out, err := engine.ParseAndRenderString(tmpl, liquid.Bindings{
		"role":    role,
		"message": message,
		"sent_at": time.Now().UTC().Format(time.RFC1123),
	})
	if err != nil {
		return "", fmt.Errorf("render notification: %w", err)
	}
	return out, nil
}

type htmlSender interface {
	SendHTML(subject, htmlBody string) error
}

// EmailNotifier sends each notification as an HTML email.
type EmailNotifier struct {
	sender htmlSender
}

func NewEmailNotifier(sender *email.Sender) (*EmailNotifier, error) {
	if err := sender.Validate(); err != nil {
		return nil, err
	}
	return &EmailNotifier{sender: sender}, nil
}

func (n *EmailNotifier) Notify(ctx context.Context, role, message string) error {
	subject, err := render(emailSubjectTemplate, role, message)
	if err != nil {
		return err
	}
	body, err := render(emailBodyTemplate, role, message)
	if err != nil {
		return err
	}
	return n.sender.SendHTML(subject, body)
}

// TelegramNotifier posts notifications to a chat via the bot API.
type TelegramNotifier struct {
	apiURL   string
	botToken string
	chatID   string
	client   *http.Client
}

func NewTelegramNotifier(apiURL, botToken, chatID string, client *http.Client) (*TelegramNotifier, error) {
	if botToken == "" || chatID == "" {
		return nil, fmt.Errorf("telegram notifier misconfigured: bot token and chat id are required")
	}
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &TelegramNotifier{
		apiURL:   strings.TrimRight(apiURL, "/"),
		botToken: botToken,
		chatID:   chatID,
		client:   client,
	}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, role, message string) error {
	text, err := render(telegramTemplate, role, message)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}
