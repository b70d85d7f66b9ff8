package repository

import (
	"context"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
)

// NopNotifier is wired when Telegram is disabled.
type NopNotifier struct{}

var _ domrepo.Notifier = NopNotifier{}

func (NopNotifier) BroadcastSignal(context.Context, *models.Signal) error { return nil }
func (NopNotifier) SendAlert(context.Context, string, string, string) error {
	return nil
}
func (NopNotifier) ProcessUpdates(context.Context) error { return nil }
