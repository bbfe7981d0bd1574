package worker_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/jukebox/internal/events"
	"github.com/glizzus/jukebox/internal/history"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/presenters"
	"github.com/glizzus/jukebox/internal/worker"
	"github.com/google/go-cmp/cmp"
)

type fakeMessenger struct {
	messages map[string]*discordgo.Message
	sent     int
	deleted  []string
	sendErr  error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{messages: make(map[string]*discordgo.Message)}
}

func (m *fakeMessenger) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sent++
	msg := &discordgo.Message{
		ID:         fmt.Sprintf("msg-%d", m.sent),
		ChannelID:  channelID,
		Embeds:     data.Embeds,
		Components: data.Components,
	}
	m.messages[msg.ID] = msg
	return msg, nil
}

func (m *fakeMessenger) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	m.deleted = append(m.deleted, messageID)
	if _, ok := m.messages[messageID]; !ok {
		return errors.New("unknown message")
	}
	delete(m.messages, messageID)
	return nil
}

func (m *fakeMessenger) ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	msg, ok := m.messages[messageID]
	if !ok {
		return nil, errors.New("unknown message")
	}
	return msg, nil
}

func (m *fakeMessenger) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	msg, ok := m.messages[messageID]
	if !ok {
		return nil, errors.New("unknown message")
	}
	msg.Embeds = []*discordgo.MessageEmbed{embed}
	return msg, nil
}

func (m *fakeMessenger) User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error) {
	return &discordgo.User{ID: userID, Username: "user " + userID}, nil
}

var song = media.Metadata{
	ID:         "dQw4w9WgXcQ",
	Title:      "Never Gonna Give You Up",
	URL:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	UploadedBy: "Rick Astley",
	Kind:       media.KindYouTube,
}

var playedAt = time.Date(2024, 5, 4, 18, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestRecordPlay(t *testing.T) {
	ctx := context.Background()
	messenger := newFakeMessenger()
	store := history.NewMemoryStore()
	recorder := worker.NewRecorder(messenger, store, "history")

	err := recorder.Handle(ctx, events.Event{
		Type:       events.TypePlay,
		Metadata:   song,
		Volume:     0.3,
		UserID:     "u1",
		OccurredAt: playedAt,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.FindOne(ctx, media.KindYouTube, "dQw4w9WgXcQ")
	if err != nil {
		t.Fatal(err)
	}
	want := &history.Record{
		Title:     "Never Gonna Give You Up",
		Channel:   "Rick Astley",
		Kind:      media.KindYouTube,
		UID:       "dQw4w9WgXcQ",
		UserID:    "u1",
		Volume:    30,
		CreatedAt: playedAt,
		MessageID: strPtr("msg-1"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	embed := messenger.messages["msg-1"].Embeds[0]
	if embed.Author == nil || embed.Author.Name != "user u1" {
		t.Errorf("author = %+v", embed.Author)
	}
}

func TestReplayReplacesPreviousCard(t *testing.T) {
	ctx := context.Background()
	messenger := newFakeMessenger()
	store := history.NewMemoryStore()
	recorder := worker.NewRecorder(messenger, store, "history")

	first := events.Event{Type: events.TypePlay, Metadata: song, Volume: 0.3, UserID: "u1", OccurredAt: playedAt}
	if err := recorder.Handle(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := first
	second.PrevMessageID = strPtr("msg-1")
	second.OccurredAt = playedAt.Add(time.Hour)
	if err := recorder.Handle(ctx, second); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"msg-1"}, messenger.deleted); diff != "" {
		t.Errorf("deleted mismatch (-want +got):\n%s", diff)
	}
	record, _ := store.FindOne(ctx, media.KindYouTube, song.ID)
	if record.MessageID == nil || *record.MessageID != "msg-2" || !record.CreatedAt.Equal(second.OccurredAt) {
		t.Errorf("record = %+v", record)
	}
}

func TestSendFailureStillRecords(t *testing.T) {
	ctx := context.Background()
	messenger := newFakeMessenger()
	messenger.sendErr = errors.New("missing access")
	store := history.NewMemoryStore()
	recorder := worker.NewRecorder(messenger, store, "history")

	if err := recorder.Handle(ctx, events.Event{Type: events.TypePlay, Metadata: song, Volume: 0.05}); err != nil {
		t.Fatal(err)
	}

	record, _ := store.FindOne(ctx, media.KindYouTube, song.ID)
	if record == nil || record.MessageID != nil || record.Volume != 5 {
		t.Errorf("record = %+v", record)
	}
}

func TestNoHistoryChannelOnlyRecords(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	recorder := worker.NewRecorder(nil, store, "")
	recorder.Clock = func() time.Time { return playedAt }

	if err := recorder.Handle(ctx, events.Event{Type: events.TypePlay, Metadata: song, Volume: 0.5}); err != nil {
		t.Fatal(err)
	}
	record, _ := store.FindOne(ctx, media.KindYouTube, song.ID)
	if record == nil || !record.CreatedAt.Equal(playedAt) {
		t.Errorf("record = %+v", record)
	}

	if err := recorder.Handle(ctx, events.Event{Type: events.TypeVolume, Metadata: song, Volume: 0.9}); err != nil {
		t.Fatal(err)
	}
}

func TestVolumeEditsCard(t *testing.T) {
	ctx := context.Background()
	messenger := newFakeMessenger()
	store := history.NewMemoryStore()
	recorder := worker.NewRecorder(messenger, store, "history")

	if err := recorder.Handle(ctx, events.Event{Type: events.TypePlay, Metadata: song, Volume: 0.3, OccurredAt: playedAt}); err != nil {
		t.Fatal(err)
	}
	if err := recorder.Handle(ctx, events.Event{Type: events.TypeVolume, Metadata: song, Volume: 0.8}); err != nil {
		t.Fatal(err)
	}

	embed := messenger.messages["msg-1"].Embeds[0]
	want := presenters.WithVolume(presenters.PlayEmbed(song, 0.3, nil, playedAt), 80)
	if diff := cmp.Diff(want, embed); diff != "" {
		t.Errorf("embed mismatch (-want +got):\n%s", diff)
	}
}

func TestVolumeWithoutCardIsIgnored(t *testing.T) {
	ctx := context.Background()
	messenger := newFakeMessenger()
	store := history.NewMemoryStore()
	recorder := worker.NewRecorder(messenger, store, "history")

	// No record at all.
	if err := recorder.Handle(ctx, events.Event{Type: events.TypeVolume, Metadata: song, Volume: 0.8}); err != nil {
		t.Fatal(err)
	}

	// A record pointing at a message that was deleted by hand.
	store.AddOrUpdate(ctx, history.Record{Kind: media.KindYouTube, UID: song.ID, MessageID: strPtr("gone")})
	if err := recorder.Handle(ctx, events.Event{Type: events.TypeVolume, Metadata: song, Volume: 0.8}); err != nil {
		t.Fatal(err)
	}
}

func TestUnknownEventIsAcknowledged(t *testing.T) {
	recorder := worker.NewRecorder(newFakeMessenger(), history.NewMemoryStore(), "history")
	if err := recorder.Handle(context.Background(), events.Event{Type: "skip"}); err != nil {
		t.Errorf("unknown events should be dropped, got %v", err)
	}
}
