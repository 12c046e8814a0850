package gateway

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rahul/liftoff/internal/agent"
)

const telegramMessageLimit = 4096

type TelegramGateway struct {
	Bot   *tgbotapi.BotAPI
	Brain agent.Brain
}

func NewTelegramGateway(token string, brain agent.Brain) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramGateway{
		Bot:   bot,
		Brain: brain,
	}, nil
}

func (tg *TelegramGateway) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}

			log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)

			chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
			response := respond(ctx, tg.Brain, chatID, update.Message.Text)
			if err := tg.Send(chatID, response); err != nil {
				log.Printf("Error replying to chat %s: %v", chatID, err)
			}
		}
	}
}

// Send delivers text as plain messages; reports contain free text from
// upstream APIs, so no parse mode is set.
func (tg *TelegramGateway) Send(chatID string, text string) error {
	id, err := parseTelegramChatID(chatID)
	if err != nil {
		return err
	}

	for _, part := range chunk(text, telegramMessageLimit) {
		if _, err := tg.Bot.Send(tgbotapi.NewMessage(id, part)); err != nil {
			return err
		}
	}
	return nil
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}

func parseTelegramChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid chat ID: %s", chatID)
	}
	return id, nil
}
