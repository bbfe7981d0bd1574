package presenters

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/jukebox/internal/history"
	"github.com/glizzus/jukebox/internal/media"
)

// ComponentIDReplayPrefix prefixes the custom id of every replay button.
// The rest of the id is the URL to play.
const ComponentIDReplayPrefix = "replay#"

const (
	FieldChannel = "Channel"
	FieldVolume  = "Volume"
)

func ReplayButton(url string) discordgo.Button {
	return discordgo.Button{
		Label:    "Play again",
		Style:    discordgo.SuccessButton,
		CustomID: ComponentIDReplayPrefix + url,
	}
}

// ReplayURL extracts the URL from a replay button custom id.
func ReplayURL(customID string) (string, bool) {
	url, ok := strings.CutPrefix(customID, ComponentIDReplayPrefix)
	if !ok || url == "" {
		return "", false
	}
	return url, true
}

// Discord rejects longer custom ids.
const maxCustomIDLength = 100

func replayRow(url string) []discordgo.MessageComponent {
	if len(ComponentIDReplayPrefix)+len(url) > maxCustomIDLength {
		return nil
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{ReplayButton(url)},
		},
	}
}

// PlayEmbed renders the history-channel card for a track that started.
// requester may be nil when the user could not be looked up.
func PlayEmbed(meta media.Metadata, volume float32, requester *discordgo.User, at time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     meta.Title,
		URL:       meta.URL,
		Color:     meta.Kind.Color(),
		Timestamp: at.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: FieldChannel, Value: meta.UploadedBy, Inline: true},
			{Name: FieldVolume, Value: strconv.Itoa(history.VolumePercent(volume)), Inline: true},
		},
	}
	if requester != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    requester.Username,
			IconURL: requester.AvatarURL(""),
		}
	}
	if meta.HasThumbnail() {
		embed.Image = &discordgo.MessageEmbedImage{URL: meta.ThumbnailURL}
	}
	return embed
}

func PlayMessage(meta media.Metadata, volume float32, requester *discordgo.User, at time.Time) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{PlayEmbed(meta, volume, requester, at)},
		Components: replayRow(meta.URL),
	}
}

// WithVolume returns a copy of embed whose volume field shows percent.
// The input is left untouched.
func WithVolume(embed *discordgo.MessageEmbed, percent int) *discordgo.MessageEmbed {
	out := *embed
	out.Fields = make([]*discordgo.MessageEmbedField, len(embed.Fields))
	for i, f := range embed.Fields {
		field := *f
		if field.Name == FieldVolume {
			field.Value = strconv.Itoa(percent)
		}
		out.Fields[i] = &field
	}
	return &out
}

// PlayingContent is the reply to the requester once playback started.
func PlayingContent(meta media.Metadata, volume float32) string {
	return fmt.Sprintf("[%s](%s)\nVolume: %d", meta.Title, meta.URL, history.VolumePercent(volume))
}

// PlayingEdit replaces the pending reply with the playing track and a
// replay button.
func PlayingEdit(meta media.Metadata, volume float32) *discordgo.WebhookEdit {
	content := PlayingContent(meta, volume)
	edit := &discordgo.WebhookEdit{Content: &content}
	if components := replayRow(meta.URL); components != nil {
		edit.Components = &components
	}
	return edit
}

func ContentEdit(content string) *discordgo.WebhookEdit {
	return &discordgo.WebhookEdit{Content: &content}
}

func MessageResponse(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	}
}

// EphemeralResponse is only shown to the user who interacted.
func EphemeralResponse(content string) *discordgo.InteractionResponse {
	resp := MessageResponse(content)
	resp.Data.Flags = discordgo.MessageFlagsEphemeral
	return resp
}
