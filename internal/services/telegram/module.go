package telegram

import (
	"context"
	"fmt"

	"log/slog"

	TgClient "github.com/admin/tg-bots/store-bot/internal/adapters/secondary/telegram"
	"github.com/admin/tg-bots/store-bot/internal/ports/service"
)

type Service struct {
	Client    *TgClient.Client
	Payment   service.IPaymentUseCase
	WebAppURL string
	Log       *slog.Logger
}

func New(
	client *TgClient.Client,
	payment service.IPaymentUseCase,
	webAppURL string,
	log *slog.Logger,
) *Service {
	return &Service{
		Client:    client,
		Payment:   payment,
		WebAppURL: webAppURL,
		Log:       log,
	}
}

// SetPaymentUseCase устанавливает payment use case после создания
// (разрывает цикл telegram service ↔ payment use case при инициализации)
func (s *Service) SetPaymentUseCase(payment service.IPaymentUseCase) {
	s.Payment = payment
}

// SendMessage отправляет текстовое сообщение пользователю
func (s *Service) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := s.Client.SendMessage(ctx, chatID, text); err != nil {
		s.Log.Error("failed to send message",
			"error", err,
			"chat_id", chatID,
		)
		return fmt.Errorf("failed to send message: %w", err)
	}

	s.Log.Debug("message sent successfully", "chat_id", chatID)
	return nil
}

// SendMessageWithKeyboard отправляет сообщение с клавиатурой
func (s *Service) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard map[string]interface{}) error {
	if err := s.Client.SendMessageWithKeyboard(ctx, chatID, text, keyboard); err != nil {
		s.Log.Error("failed to send message with keyboard",
			"error", err,
			"chat_id", chatID,
		)
		return fmt.Errorf("failed to send message with keyboard: %w", err)
	}

	s.Log.Debug("message with keyboard sent successfully", "chat_id", chatID)
	return nil
}
