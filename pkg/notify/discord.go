package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/harrisonrobin/sunsine/pkg/model"
)

// DiscordNotifier sends DMs and channel posts through a discordgo session.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
	logger    *slog.Logger
}

func NewDiscord(session *discordgo.Session, channelID string, logger *slog.Logger) *DiscordNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscordNotifier{session: session, channelID: channelID, logger: logger}
}

func (n *DiscordNotifier) SendDirect(owner model.UserKey, text string) error {
	userID, err := n.resolveUserID(owner)
	if err != nil {
		return &DeliveryError{Recipient: owner, Err: err}
	}

	ch, err := n.session.UserChannelCreate(userID)
	if err != nil {
		return &DeliveryError{Recipient: owner, Err: fmt.Errorf("open DM channel: %w", err)}
	}
	if _, err := n.session.ChannelMessageSend(ch.ID, text); err != nil {
		return &DeliveryError{Recipient: owner, Err: err}
	}
	return nil
}

func (n *DiscordNotifier) SendChannel(text string) error {
	_, err := n.session.ChannelMessageSend(n.channelID, text)
	return err
}

// resolveUserID maps a sheet owner key to a Discord user ID. Numeric keys
// are already IDs; anything else is matched by username against the state
// cache, with an API member search as fallback.
func (n *DiscordNotifier) resolveUserID(owner model.UserKey) (string, error) {
	if owner.Numeric() {
		if _, err := n.session.User(string(owner)); err != nil {
			return "", fmt.Errorf("unknown user id: %w", err)
		}
		return string(owner), nil
	}

	name := string(owner)
	// Legacy discriminator suffix ("name#1234") still appears in older
	// sheet rows; match on the name part.
	if i := strings.IndexByte(name, '#'); i > 0 {
		name = name[:i]
	}

	for _, guild := range n.session.State.Guilds {
		for _, member := range guild.Members {
			if member.User != nil && member.User.Username == name {
				return member.User.ID, nil
			}
		}
	}

	for _, guild := range n.session.State.Guilds {
		members, err := n.session.GuildMembersSearch(guild.ID, name, 1)
		if err != nil {
			n.logger.Warn("member search failed", "guild", guild.ID, "error", err)
			continue
		}
		if len(members) > 0 && members[0].User != nil {
			return members[0].User.ID, nil
		}
	}

	return "", fmt.Errorf("user %q not found in any guild", owner)
}
