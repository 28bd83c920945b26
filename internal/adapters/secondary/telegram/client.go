package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"
)

const (
	telegramAPIBaseURL = "https://api.telegram.org/bot"
	apiTimeout         = 30 * time.Second
)

// Client клиент для работы с Telegram Bot API
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *slog.Logger
}

// NewClient создаёт новый клиент для Telegram Bot API
func NewClient(token string, log *slog.Logger) *Client {
	return NewClientWithBaseURL(token, telegramAPIBaseURL+token, log)
}

// NewClientWithBaseURL создаёт клиент с произвольным адресом Bot API
// (локальный bot-api-server или тестовый стенд)
func NewClientWithBaseURL(token string, baseURL string, log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: apiTimeout,
		},
		baseURL: baseURL,
		token:   token,
		log:     log,
	}
}

// APIResponse базовая структура ответа от Telegram API
type APIResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

// callMethod выполняет POST к методу Bot API и декодирует ответ в out.
// out обязан встраивать APIResponse; ok=false превращается в ошибку.
// Таймаут httpClient ограничивает ожидание — зависший вызов провайдера
// возвращается как ошибка, а не блокирует обработку.
func (c *Client) callMethod(ctx context.Context, method string, reqBody interface{}, out interface{ apiResult() *APIResponse }) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("telegram marshal failed [method=%s]: %w", method, err)
	}

	url := c.baseURL + "/" + method
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("telegram create request failed [method=%s]: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Debug("telegram request failed",
			"error", err,
			"method", method,
		)
		return fmt.Errorf("telegram request failed [method=%s]: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram read body failed [method=%s, status=%d]: %w", method, resp.StatusCode, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.log.Error("failed to unmarshal telegram response",
			"error", err,
			"method", method,
			"status_code", resp.StatusCode,
			"body_preview", truncateString(string(body), 200),
		)
		return fmt.Errorf("telegram unmarshal failed [method=%s, status=%d]: %w", method, resp.StatusCode, err)
	}

	if api := out.apiResult(); !api.OK {
		c.log.Debug("telegram API error",
			"method", method,
			"error_code", api.ErrorCode,
			"description", api.Description,
		)
		return fmt.Errorf("telegram API error [method=%s, code=%d]: %s", method, api.ErrorCode, api.Description)
	}

	return nil
}

func (a *APIResponse) apiResult() *APIResponse { return a }

// SendMessageRequest запрос на отправку сообщения
type SendMessageRequest struct {
	ChatID          int64                  `json:"chat_id"`
	Text            string                 `json:"text"`
	ParseMode       string                 `json:"parse_mode,omitempty"` // "HTML", "Markdown", "MarkdownV2"
	MessageThreadID *int64                 `json:"message_thread_id,omitempty"`
	ReplyMarkup     map[string]interface{} `json:"reply_markup,omitempty"`
}

// SendMessageResult результат отправки сообщения
type SendMessageResult struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Date int64 `json:"date"`
}

// SendMessageResponse ответ от Telegram API на sendMessage
type SendMessageResponse struct {
	APIResponse
	Result SendMessageResult `json:"result"`
}

// SendMessage отправляет текстовое сообщение
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := c.SendMessageWithRequest(ctx, SendMessageRequest{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

// SendMessageWithKeyboard отправляет сообщение с inline-клавиатурой
func (c *Client) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard map[string]interface{}) error {
	_, err := c.SendMessageWithRequest(ctx, SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboard,
	})
	return err
}

// SendMessageWithRequest отправляет сообщение с полным контролем запроса,
// возвращает message_id
func (c *Client) SendMessageWithRequest(ctx context.Context, req SendMessageRequest) (int64, error) {
	var resp SendMessageResponse
	if err := c.callMethod(ctx, "sendMessage", req, &resp); err != nil {
		return 0, err
	}

	c.log.Debug("message sent successfully",
		"chat_id", req.ChatID,
		"message_id", resp.Result.MessageID,
	)
	return resp.Result.MessageID, nil
}

// GetMe проверяет токен и доступность Bot API
func (c *Client) GetMe(ctx context.Context) error {
	var resp struct {
		APIResponse
		Result struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"result"`
	}
	if err := c.callMethod(ctx, "getMe", struct{}{}, &resp); err != nil {
		return err
	}

	c.log.Info("bot info retrieved successfully", "username", resp.Result.Username)
	return nil
}

// BotCommand представляет команду бота
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// SetMyCommands регистрирует команды бота в меню
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	reqBody := struct {
		Commands []BotCommand `json:"commands"`
	}{
		Commands: commands,
	}

	var resp APIResponse
	if err := c.callMethod(ctx, "setMyCommands", reqBody, &resp); err != nil {
		return err
	}

	c.log.Info("bot commands registered successfully", "commands_count", len(commands))
	return nil
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
