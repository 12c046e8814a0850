package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rahul/liftoff/internal/agent"
)

const discordMessageLimit = 2000

// DiscordGateway answers goals posted in channels the bot can read. Chat IDs
// are Discord channel IDs.
type DiscordGateway struct {
	Session *discordgo.Session
	Brain   agent.Brain
}

func NewDiscordGateway(token string, brain agent.Brain) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent

	return &DiscordGateway{
		Session: session,
		Brain:   brain,
	}, nil
}

func (dg *DiscordGateway) Start(ctx context.Context) error {
	remove := dg.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		dg.onMessage(ctx, s, m)
	})
	defer remove()

	if err := dg.Session.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}
	log.Printf("Discord gateway connected")

	<-ctx.Done()
	return dg.Session.Close()
}

func (dg *DiscordGateway) onMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	text := strings.TrimSpace(m.Content)
	if text == "" {
		return
	}

	log.Printf("[%s] %s", m.Author.Username, text)

	response := respond(ctx, dg.Brain, m.ChannelID, text)
	if err := dg.Send(m.ChannelID, response); err != nil {
		log.Printf("Error replying to channel %s: %v", m.ChannelID, err)
	}
}

func (dg *DiscordGateway) Send(chatID string, text string) error {
	if chatID == "" {
		return fmt.Errorf("invalid chat ID: %q", chatID)
	}
	for _, part := range chunk(text, discordMessageLimit) {
		if _, err := dg.Session.ChannelMessageSend(chatID, part); err != nil {
			return err
		}
	}
	return nil
}

func (dg *DiscordGateway) Stop() error {
	return dg.Session.Close()
}
