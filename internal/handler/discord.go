package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/jukebox/internal/presenters"
)

type ReadyHandler = func(*discordgo.Session, *discordgo.Ready)
type InteractionCreateHandler = func(*discordgo.Session, *discordgo.InteractionCreate)

// DiscordSession is the part of *discordgo.Session that interactions use.
type DiscordSession interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, opts ...discordgo.RequestOption) error
	InteractionResponseEdit(i *discordgo.Interaction, wh *discordgo.WebhookEdit, opts ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, opts ...discordgo.RequestOption) error
}

var _ DiscordSession = (*discordgo.Session)(nil)

var ReadyLog = func(s *discordgo.Session, r *discordgo.Ready) {
	username := r.User.Username
	userID := r.User.ID
	slog.Info("Bot is ready", "username", username, "userID", userID)
}

// PlayRequest is the parsed form of the play and search commands.
type PlayRequest struct {
	Keyword   string
	Volume    *float32
	PlayCount int
}

// CommandToPlayRequest reads the keyword from keywordOption and the optional
// volume and play count.
func CommandToPlayRequest(
	keywordOption string,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) (*PlayRequest, error) {
	req := &PlayRequest{PlayCount: 1}

	for _, option := range options {
		switch option.Name {
		case keywordOption:
			if option.Type != discordgo.ApplicationCommandOptionString {
				return nil, &InvalidOptionError{Name: option.Name, Reason: "must be text"}
			}
			req.Keyword = option.StringValue()
		case OptionVolume:
			volume, err := VolumeOption(option)
			if err != nil {
				return nil, err
			}
			req.Volume = &volume
		case OptionPlayCount:
			if option.Type != discordgo.ApplicationCommandOptionInteger {
				return nil, &InvalidOptionError{Name: option.Name, Reason: "must be a whole number"}
			}
			n := option.IntValue()
			if n < 1 || n > MaxPlayCount {
				return nil, &InvalidOptionError{Name: option.Name, Reason: fmt.Sprintf("must be between 1 and %d", MaxPlayCount)}
			}
			req.PlayCount = int(n)
		}
	}

	if req.Keyword == "" {
		return nil, &InvalidOptionError{Name: keywordOption, Reason: "is required"}
	}
	return req, nil
}

// VolumeOption converts a 0 to 100 integer option into a playback gain.
func VolumeOption(option *discordgo.ApplicationCommandInteractionDataOption) (float32, error) {
	if option.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, &InvalidOptionError{Name: option.Name, Reason: "must be a whole number"}
	}
	v := option.IntValue()
	if v < 0 || v > 100 {
		return 0, &InvalidOptionError{Name: option.Name, Reason: "must be between 0 and 100"}
	}
	return float32(v) / 100, nil
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// NewInteractionHandler routes interactions through fm and reports failures
// to the user where possible.
func NewInteractionHandler(fm *FlowManager) func(DiscordSession, *discordgo.InteractionCreate) {
	return func(s DiscordSession, i *discordgo.InteractionCreate) {
		err := fm.Router(context.Background(), s, i)
		if err == nil {
			return
		}

		var (
			userErr   *UserError
			optionErr *InvalidOptionError
		)
		switch {
		case errors.As(err, &userErr):
			respondError(s, i, userErr.Message)
		case errors.As(err, &optionErr):
			respondError(s, i, optionErr.UserMessage())
		default:
			slog.Error("Failed to handle interaction", "type", i.Type, "error", err)
		}
	}
}

func respondError(s DiscordSession, i *discordgo.InteractionCreate, message string) {
	if err := s.InteractionRespond(i.Interaction, presenters.EphemeralResponse(message)); err != nil {
		slog.Warn("Failed to report error to user", "error", err)
	}
}

func MakeInteractionCreateHandler(fm *FlowManager) InteractionCreateHandler {
	handle := NewInteractionHandler(fm)
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		handle(s, i)
	}
}

type Handlers struct {
	Ready             ReadyHandler
	InteractionCreate InteractionCreateHandler
}

func NewSession(token string, handlers Handlers) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

	if handlers.Ready != nil {
		s.AddHandler(handlers.Ready)
	}
	if handlers.InteractionCreate != nil {
		s.AddHandler(handlers.InteractionCreate)
	}

	return s, nil
}
