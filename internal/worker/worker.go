// Package worker renders playback events into the history channel and
// persists them to the history store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/jukebox/internal/events"
	"github.com/glizzus/jukebox/internal/history"
	"github.com/glizzus/jukebox/internal/presenters"
)

// Messenger is the part of *discordgo.Session the Recorder posts with.
type Messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

var _ Messenger = (*discordgo.Session)(nil)

// Recorder handles events. Discord failures are logged and skipped;
// store failures are returned so the event is retried.
type Recorder struct {
	messenger Messenger
	store     history.Store
	channelID string

	Clock func() time.Time
}

// NewRecorder posts to channelID. With an empty channelID only the store
// is written.
func NewRecorder(messenger Messenger, store history.Store, channelID string) *Recorder {
	return &Recorder{
		messenger: messenger,
		store:     store,
		channelID: channelID,
		Clock:     time.Now,
	}
}

// Handle satisfies events.Handler.
func (r *Recorder) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.TypePlay:
		return r.recordPlay(ctx, event)
	case events.TypeVolume:
		return r.recordVolume(ctx, event)
	default:
		slog.WarnContext(ctx, "Ignoring unknown event", slog.String("type", string(event.Type)), slog.String("id", event.ID))
		return nil
	}
}

func (r *Recorder) posting() bool {
	return r.channelID != "" && r.messenger != nil
}

func (r *Recorder) recordPlay(ctx context.Context, event events.Event) error {
	at := event.OccurredAt
	if at.IsZero() {
		at = r.Clock()
	}
	meta := event.Metadata

	var messageID *string
	if r.posting() {
		// The new card replaces the one left by the last play of this item.
		if event.PrevMessageID != nil {
			if err := r.messenger.ChannelMessageDelete(r.channelID, *event.PrevMessageID); err != nil {
				slog.WarnContext(ctx, "Failed to delete previous history message", slog.String("messageID", *event.PrevMessageID), slog.Any("error", err))
			}
		}

		var requester *discordgo.User
		if event.UserID != "" {
			user, err := r.messenger.User(event.UserID)
			if err != nil {
				slog.WarnContext(ctx, "Failed to look up requester", slog.String("userID", event.UserID), slog.Any("error", err))
			} else {
				requester = user
			}
		}

		msg, err := r.messenger.ChannelMessageSendComplex(r.channelID, presenters.PlayMessage(meta, event.Volume, requester, at))
		if err != nil {
			slog.ErrorContext(ctx, "Failed to send history message", slog.String("title", meta.Title), slog.Any("error", err))
		} else {
			messageID = &msg.ID
		}
	}

	record := history.Record{
		Title:     meta.Title,
		Channel:   meta.UploadedBy,
		Kind:      meta.Kind,
		UID:       meta.ID,
		UserID:    event.UserID,
		Volume:    history.VolumePercent(event.Volume),
		CreatedAt: at,
		MessageID: messageID,
	}
	if err := r.store.AddOrUpdate(ctx, record); err != nil {
		return fmt.Errorf("failed to record play of %s/%s: %w", meta.Kind, meta.ID, err)
	}

	slog.InfoContext(
		ctx,
		"Recorded play",
		slog.String("kind", meta.Kind.String()),
		slog.String("uid", meta.ID),
		slog.Int("volume", record.Volume),
	)
	return nil
}

// recordVolume edits the volume shown on the item's history card.
// The stored volume is already updated by the player.
func (r *Recorder) recordVolume(ctx context.Context, event events.Event) error {
	if !r.posting() {
		return nil
	}
	meta := event.Metadata

	record, err := r.store.FindOne(ctx, meta.Kind, meta.ID)
	if err != nil {
		return fmt.Errorf("failed to find history of %s/%s: %w", meta.Kind, meta.ID, err)
	}
	if record == nil || record.MessageID == nil {
		return nil
	}

	msg, err := r.messenger.ChannelMessage(r.channelID, *record.MessageID)
	if err != nil {
		slog.WarnContext(ctx, "History message is gone", slog.String("messageID", *record.MessageID), slog.Any("error", err))
		return nil
	}
	if len(msg.Embeds) == 0 {
		return nil
	}

	embed := presenters.WithVolume(msg.Embeds[0], history.VolumePercent(event.Volume))
	if _, err := r.messenger.ChannelMessageEditEmbed(r.channelID, msg.ID, embed); err != nil {
		slog.WarnContext(ctx, "Failed to edit history message", slog.String("messageID", msg.ID), slog.Any("error", err))
	}
	return nil
}
