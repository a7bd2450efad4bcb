package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordNotifier posts reminders to a Discord webhook
type DiscordNotifier struct {
	session *discordgo.Session
	id      string
	token   string
}

func NewDiscordNotifier(webhookID, webhookToken string) (*DiscordNotifier, error) {
	// webhook execution is authenticated by the webhook token, not a bot token
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	return &DiscordNotifier{session: session, id: webhookID, token: webhookToken}, nil
}

func (d *DiscordNotifier) Notify(ctx context.Context, n Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.session.WebhookExecute(d.id, d.token, false, webhookParams(n), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

func webhookParams(n Notice) *discordgo.WebhookParams {
	embed := &discordgo.MessageEmbed{
		Title:       noticeTitle,
		Description: n.Message(),
		Color:       0xe0af68,
	}
	if !n.DueDate.IsZero() {
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Due", Value: n.DueDate.Format("2006-01-02"), Inline: true},
		}
	}
	return &discordgo.WebhookParams{
		Username: "tnm",
		Embeds:   []*discordgo.MessageEmbed{embed},
	}
}
