package services

import (
	"context"
	"fmt"
	"strings"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramMessageLimit is the maximum length of a Telegram text message
const telegramMessageLimit = 4096

// TelegramPublisher posts the daily digest to a Telegram chat
type TelegramPublisher struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *core.Logger
}

// NewTelegramPublisher returns nil when no token or chat is configured
func NewTelegramPublisher(token string, chatID int64, logger *core.Logger) (*TelegramPublisher, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	logger.Info("Telegram publisher ready", "bot", bot.Self.UserName, "chat_id", chatID)
	return &TelegramPublisher{bot: bot, chatID: chatID, logger: logger}, nil
}

// Publish sends the digest, split into as many messages as needed
func (p *TelegramPublisher) Publish(ctx context.Context, dateKey string, candidates []models.PickCandidate) error {
	for i, text := range FormatDigestMessages(dateKey, candidates) {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := tgbotapi.NewMessage(p.chatID, text)
		msg.DisableWebPagePreview = true
		if _, err := p.bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send digest part %d: %w", i+1, err)
		}
	}

	p.logger.Info("Published digest", "date", dateKey, "picks", len(candidates))
	return nil
}

// FormatDigestMessages renders the digest as plain text messages that each fit
// in one Telegram message. A single post is never split across messages.
func FormatDigestMessages(dateKey string, candidates []models.PickCandidate) []string {
	if len(candidates) == 0 {
		return nil
	}

	var messages []string
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("AI News %s\n", dateKey))

	for i, c := range candidates {
		block := formatPost(i+1, c)
		if sb.Len()+len(block) > telegramMessageLimit && sb.Len() > 0 {
			messages = append(messages, strings.TrimSpace(sb.String()))
			sb.Reset()
		}
		sb.WriteString(truncateRunes(block, telegramMessageLimit))
	}

	if sb.Len() > 0 {
		messages = append(messages, strings.TrimSpace(sb.String()))
	}
	return messages
}

func formatPost(rank int, c models.PickCandidate) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%d. %s\n", rank, c.Summary.TitleVI))
	for _, b := range c.Summary.Bullets {
		sb.WriteString("• " + b + "\n")
	}
	if c.Summary.SoWhatVN != "" {
		sb.WriteString(c.Summary.SoWhatVN + "\n")
	}
	if len(c.Summary.Hashtags) > 0 {
		sb.WriteString(strings.Join(c.Summary.Hashtags, " ") + "\n")
	}
	sb.WriteString(fmt.Sprintf("Nguồn: %s %s\n", c.Summary.Attribution, c.Summary.URL))
	return sb.String()
}
