package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	xhttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"
)

const apiBase = "https://api.telegram.org/bot"

var alertEmoji = map[string]string{
	"signal":  "\U0001F680", // rocket
	"error":   "⚠️",
	"warning": "⚡",
	"info":    "ℹ️",
}

// Config holds bot parameters.
type Config struct {
	BotToken    string
	PollTimeout time.Duration
}

// Service delivers signal cards and operational alerts to registered
// chats and registers new subscribers via /start.
type Service struct {
	cfg         Config
	http        *xhttp.Client
	subscribers repository.SubscriberStore
	logger      *applogger.Logger
	metrics     repository.Metrics

	offset atomic.Int64 // next getUpdates offset
}

var _ repository.Notifier = (*Service)(nil)

func NewService(cfg Config, httpClient *xhttp.Client, subscribers repository.SubscriberStore, logger *applogger.Logger, metrics repository.Metrics) *Service {
	return &Service{
		cfg:         cfg,
		http:        httpClient,
		subscribers: subscribers,
		logger:      logger,
		metrics:     metrics,
	}
}

// BroadcastSignal formats and delivers one signal card to every
// subscriber.
func (s *Service) BroadcastSignal(ctx context.Context, sig *models.Signal) error {
	return s.SendAlert(ctx, "signal", FormatSignalMessage(sig), "normal")
}

// SendAlert frames text with the alert emoji and broadcasts it. A
// failed endpoint is logged and skipped.
func (s *Service) SendAlert(ctx context.Context, kind, text, priority string) error {
	emoji, ok := alertEmoji[kind]
	if !ok {
		emoji = alertEmoji["info"]
	}
	msg := fmt.Sprintf("%s *%s*\n\n%s\n\nTime: %s",
		emoji, strings.ToUpper(kind), text, time.Now().Format("2006-01-02 15:04:05"))
	if priority == "high" {
		msg = "❗️" + msg
	}
	return s.broadcast(ctx, msg)
}

func (s *Service) broadcast(ctx context.Context, text string) error {
	chats, err := s.subscribers.List(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	for _, chatID := range chats {
		if err := s.sendMessage(ctx, chatID, text); err != nil {
			s.logger.Warn("telegram delivery failed",
				applogger.String("chat_id", chatID),
				applogger.Error(err))
			continue
		}
		s.metrics.RecordAlert("telegram")
	}
	return nil
}

func (s *Service) sendMessage(ctx context.Context, chatID, text string) error {
	return s.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    apiBase + s.cfg.BotToken + "/sendMessage",
		Body: map[string]string{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "Markdown",
		},
	}, nil)
}

type updatesResponse struct {
	OK     bool `json:"ok"`
	Result []struct {
		UpdateID int64 `json:"update_id"`
		Message  struct {
			Text string `json:"text"`
			Chat struct {
				ID json.Number `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"result"`
}

// ProcessUpdates polls getUpdates once and registers /start senders.
// The offset advances past every seen update so none is reprocessed.
func (s *Service) ProcessUpdates(ctx context.Context) error {
	query := map[string][]string{
		"offset":  {strconv.FormatInt(s.offset.Load(), 10)},
		"timeout": {strconv.Itoa(int(s.cfg.PollTimeout.Seconds()))},
	}

	var resp updatesResponse
	err := s.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         apiBase + s.cfg.BotToken + "/getUpdates",
		QueryParams: query,
	}, &resp)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}

	for _, upd := range resp.Result {
		if upd.UpdateID >= s.offset.Load() {
			s.offset.Store(upd.UpdateID + 1)
		}
		if upd.Message.Text != "/start" {
			continue
		}
		chatID := upd.Message.Chat.ID.String()
		if chatID == "" {
			continue
		}
		if err := s.subscribers.Save(ctx, chatID); err != nil {
			s.logger.Error("failed to save subscriber",
				applogger.String("chat_id", chatID),
				applogger.Error(err))
			continue
		}
		s.logger.Info("new subscriber registered", applogger.String("chat_id", chatID))
	}
	return nil
}
