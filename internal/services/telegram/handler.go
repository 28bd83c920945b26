package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/admin/tg-bots/store-bot/internal/domain"
)

// HandleUpdate Основной метод для обработки всех типов обновлений
func (s *Service) HandleUpdate(ctx context.Context, update *domain.Update) error {
	if update == nil {
		return fmt.Errorf("update is nil")
	}

	if update.PreCheckoutQuery != nil {
		return s.handlePreCheckoutQuery(ctx, update.PreCheckoutQuery, update.UpdateID)
	}

	if update.Message != nil {
		return s.HandleMessage(ctx, update.Message, update.UpdateID)
	}

	return nil
}

// HandleMessage обрабатывает входящее сообщение - роутинг в usecase
func (s *Service) HandleMessage(ctx context.Context, message *domain.Message, updateID int64) error {
	if message == nil {
		return fmt.Errorf("message is nil")
	}

	if message.From == nil || message.From.IsBot {
		s.Log.Debug("ignoring message from bot", "update_id", updateID)
		return nil
	}

	if message.SuccessfulPayment != nil {
		return s.handleSuccessfulPayment(ctx, message, updateID)
	}

	if message.Chat == nil {
		s.Log.Debug("ignoring message without chat", "update_id", updateID)
		return nil
	}

	if message.Chat.Type != "private" {
		s.Log.Warn("ignoring message from group/chat",
			"update_id", updateID,
			"chat_type", message.Chat.Type,
			"chat_id", message.Chat.ID,
		)
		return nil
	}

	if message.Text != nil {
		return s.routeTextMessage(ctx, message, *message.Text, updateID)
	}

	return nil
}

// handlePreCheckoutQuery обрабатывает pre_checkout_query от Telegram (для платежей Stars)
func (s *Service) handlePreCheckoutQuery(ctx context.Context, query *domain.PreCheckoutQuery, updateID int64) error {
	if query == nil || query.From == nil {
		s.Log.Error("pre_checkout_query is nil or has no from", "update_id", updateID)
		return fmt.Errorf("invalid pre_checkout_query")
	}

	if err := s.Payment.HandlePreCheckout(ctx, query); err != nil {
		return domain.WrapBusinessError(fmt.Errorf("failed to handle pre_checkout_query: %w", err))
	}

	return nil
}

// handleSuccessfulPayment обрабатывает successful_payment от Telegram (для платежей Stars)
func (s *Service) handleSuccessfulPayment(ctx context.Context, message *domain.Message, updateID int64) error {
	if message.Chat == nil {
		s.Log.Error("successful_payment message has no chat", "update_id", updateID)
		return fmt.Errorf("message has no chat")
	}

	if err := s.Payment.HandleSuccessfulPayment(ctx, message.From, message.Chat.ID, message.SuccessfulPayment); err != nil {
		return domain.WrapBusinessError(fmt.Errorf("failed to handle successful_payment: %w", err))
	}

	return nil
}

// routeTextMessage роутит в команду/текст
func (s *Service) routeTextMessage(ctx context.Context, message *domain.Message, text string, updateID int64) error {
	if IsCommand(text) {
		return s.handleCommand(ctx, message, text, updateID)
	}

	// Диалогов у бота нет: покупки идут через mini app, текст подсказываем командой
	return s.SendMessage(ctx, message.Chat.ID, "Используйте /start, чтобы открыть магазин.")
}

func (s *Service) handleCommand(ctx context.Context, message *domain.Message, text string, updateID int64) error {
	command := ParseCommand(text)

	switch command {
	case "start":
		return s.handleStart(ctx, message.Chat.ID)
	case "refund":
		return s.handleRefund(ctx, message, text, updateID)
	default:
		s.Log.Debug("unknown command", "command", command, "update_id", updateID)
		return s.SendMessage(ctx, message.Chat.ID, "Неизвестная команда. Используйте /start, чтобы открыть магазин.")
	}
}

// handleStart отправляет приветствие с кнопкой открытия mini app
func (s *Service) handleStart(ctx context.Context, chatID int64) error {
	keyboard := map[string]interface{}{
		"inline_keyboard": [][]map[string]interface{}{
			{
				{
					"text":    "Открыть магазин",
					"web_app": map[string]interface{}{"url": s.WebAppURL},
				},
			},
		},
	}

	return s.SendMessageWithKeyboard(ctx, chatID,
		"Добро пожаловать! Нажмите кнопку ниже, чтобы открыть магазин и оплатить покупку звёздами Telegram.",
		keyboard,
	)
}

// handleRefund выполняет возврат по charge_id: /refund <charge_id>
func (s *Service) handleRefund(ctx context.Context, message *domain.Message, text string, updateID int64) error {
	chargeID := CommandArgs(text)
	if chargeID == "" {
		return s.SendMessage(ctx, message.Chat.ID, "Использование: /refund <charge_id>")
	}

	record, err := s.Payment.Refund(ctx, chargeID, message.From.ID)
	if err != nil {
		s.Log.Warn("refund command failed",
			"error", err,
			"charge_id", chargeID,
			"requested_by", message.From.ID,
			"update_id", updateID,
		)

		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			return s.SendMessage(ctx, message.Chat.ID, "Команда доступна только администраторам.")
		case errors.Is(err, domain.ErrPaymentNotFound):
			return s.SendMessage(ctx, message.Chat.ID, "Платёж с таким charge_id не найден.")
		case errors.Is(err, domain.ErrAlreadyRefunded):
			return s.SendMessage(ctx, message.Chat.ID, "Возврат по этому платежу уже выполнен.")
		default:
			return s.SendMessage(ctx, message.Chat.ID, "Не удалось выполнить возврат, попробуйте позже.")
		}
	}

	return s.SendMessage(ctx, message.Chat.ID,
		fmt.Sprintf("Возврат выполнен: %d ⭐ пользователю %d (товар %s).", record.Amount, record.PayerID, record.ProductID),
	)
}

func ParseCommand(text string) string {
	text = strings.TrimPrefix(text, "/")

	if idx := strings.Index(text, "@"); idx != -1 {
		text = text[:idx]
	}

	if idx := strings.Index(text, " "); idx != -1 {
		text = text[:idx]
	}

	return text
}

// CommandArgs возвращает аргументы команды после первого пробела
func CommandArgs(text string) string {
	if idx := strings.Index(text, " "); idx != -1 {
		return strings.TrimSpace(text[idx+1:])
	}

	return ""
}

func IsCommand(text string) bool {
	return len(text) > 0 && text[0] == '/'
}
