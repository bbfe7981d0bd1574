package handler_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/jukebox/internal/generator"
	"github.com/glizzus/jukebox/internal/handler"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/player"
	"github.com/glizzus/jukebox/internal/presenters"
	"github.com/google/go-cmp/cmp"
)

type mockSession struct {
	responses []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
	deleted   []string
}

func (m *mockSession) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, opts ...discordgo.RequestOption) error {
	m.responses = append(m.responses, resp)
	return nil
}

func (m *mockSession) InteractionResponseEdit(i *discordgo.Interaction, wh *discordgo.WebhookEdit, opts ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.edits = append(m.edits, wh)
	return &discordgo.Message{}, nil
}

func (m *mockSession) ChannelMessageDelete(channelID, messageID string, opts ...discordgo.RequestOption) error {
	m.deleted = append(m.deleted, channelID+"/"+messageID)
	return nil
}

var _ handler.DiscordSession = (*mockSession)(nil)

type fakePlayer struct {
	requests []player.Request
	playErr  error
	stopped  bool
	volume   float32
	status   *player.Status
}

func (p *fakePlayer) Play(ctx context.Context, req player.Request) (*player.Result, error) {
	p.requests = append(p.requests, req)
	if p.playErr != nil {
		return nil, p.playErr
	}
	meta := media.Metadata{ID: "dQw4w9WgXcQ", Title: "Song", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Kind: req.Kind}
	volume := player.DefaultVolume
	if req.Volume != nil {
		volume = *req.Volume
	}
	return &player.Result{Metadata: meta, Volume: volume}, nil
}

func (p *fakePlayer) Stop(ctx context.Context) (bool, error) {
	return p.stopped, nil
}

func (p *fakePlayer) SetVolume(ctx context.Context, volume float32) (media.Metadata, error) {
	if p.status == nil {
		return media.Metadata{}, player.ErrNothingPlaying
	}
	p.volume = volume
	return p.status.Metadata, nil
}

func (p *fakePlayer) NowPlaying(ctx context.Context) (*player.Status, error) {
	if p.status == nil {
		return nil, player.ErrNothingPlaying
	}
	return p.status, nil
}

type fakeSearcher struct {
	results []media.Metadata
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, keyword string) ([]media.Metadata, error) {
	f.queries = append(f.queries, keyword)
	return f.results, nil
}

type fixedIDs struct{ id string }

func (f fixedIDs) Next() (string, error) { return f.id, nil }

func setup(p *fakePlayer, s *fakeSearcher) *handler.FlowManager {
	fm := handler.NewFlowManager(fixedIDs{id: "instance"})
	handler.RegisterFlows(fm, handler.Deps{Player: p, Searcher: s, HistoryChannelID: "history"})
	return fm
}

func command(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			ChannelID: "general",
			Member:    &discordgo.Member{User: &discordgo.User{ID: "user-1"}},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func component(channelID, customID string, values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionMessageComponent,
			ChannelID: channelID,
			Member:    &discordgo.Member{User: &discordgo.User{ID: "user-2"}},
			Message:   &discordgo.Message{ID: "menu-message"},
			Data: discordgo.MessageComponentInteractionData{
				CustomID: customID,
				Values:   values,
			},
		},
	}
}

func TestPing(t *testing.T) {
	session := &mockSession{}
	fm := setup(&fakePlayer{}, &fakeSearcher{})

	if err := fm.Router(context.Background(), session, command("ping")); err != nil {
		t.Fatal(err)
	}

	want := []*discordgo.InteractionResponse{presenters.MessageResponse("Pong!")}
	if diff := cmp.Diff(want, session.responses); diff != "" {
		t.Errorf("responses mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayLink(t *testing.T) {
	session := &mockSession{}
	p := &fakePlayer{}
	fm := setup(p, &fakeSearcher{})

	i := command("play", stringOpt("music", "https://youtu.be/dQw4w9WgXcQ"), intOpt("play_count", 2))
	if err := fm.Router(context.Background(), session, i); err != nil {
		t.Fatal(err)
	}

	want := []player.Request{{
		Kind:       media.KindYouTube,
		Identifier: "https://youtu.be/dQw4w9WgXcQ",
		PlayCount:  2,
		UserID:     "user-1",
	}}
	if diff := cmp.Diff(want, p.requests); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
	if len(session.responses) != 1 || len(session.edits) != 1 {
		t.Fatalf("responses = %d edits = %d", len(session.responses), len(session.edits))
	}
	if got := *session.edits[0].Content; got != "[Song](https://www.youtube.com/watch?v=dQw4w9WgXcQ)\nVolume: 5" {
		t.Errorf("edit = %q", got)
	}
	if fm.Pending() != 0 {
		t.Error("a link play leaves no pending flow")
	}
}

func TestPlayFailureIsReported(t *testing.T) {
	session := &mockSession{}
	p := &fakePlayer{playErr: &player.RetryExhaustedError{Attempts: 4}}
	fm := setup(p, &fakeSearcher{})

	i := command("play", stringOpt("music", "https://soundcloud.com/artist/track"))
	if err := fm.Router(context.Background(), session, i); err != nil {
		t.Fatal(err)
	}

	if p.requests[0].Kind != media.KindSoundCloud {
		t.Errorf("kind = %v", p.requests[0].Kind)
	}
	if got := *session.edits[0].Content; got != player.UserMessage(p.playErr) {
		t.Errorf("edit = %q", got)
	}
}

func TestSearchThenSelect(t *testing.T) {
	session := &mockSession{}
	p := &fakePlayer{}
	s := &fakeSearcher{results: []media.Metadata{
		{Title: "First", URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", UploadedBy: "a"},
		{Title: "Second", URL: "https://www.youtube.com/watch?v=bbbbbbbbbbb", UploadedBy: "b"},
	}}
	fm := setup(p, s)
	ctx := context.Background()

	// Keywords given to play start a search.
	if err := fm.Router(ctx, session, command("play", stringOpt("music", "never gonna"), intOpt("volume", 40))); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"never gonna"}, s.queries); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}
	want := presenters.BuildSearchResponse("never gonna", s.results, "instance")
	if diff := cmp.Diff(want, session.responses[0]); diff != "" {
		t.Errorf("menu mismatch (-want +got):\n%s", diff)
	}
	if fm.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", fm.Pending())
	}

	selected := component("general", "search_select:instance", "https://www.youtube.com/watch?v=bbbbbbbbbbb")
	if err := fm.Router(ctx, session, selected); err != nil {
		t.Fatal(err)
	}

	if len(p.requests) != 1 {
		t.Fatalf("requests = %d", len(p.requests))
	}
	got := p.requests[0]
	if got.Identifier != "https://www.youtube.com/watch?v=bbbbbbbbbbb" || got.Volume == nil || *got.Volume != 0.4 || got.UserID != "user-2" {
		t.Errorf("request = %+v", got)
	}
	if diff := cmp.Diff([]string{"general/menu-message"}, session.deleted); diff != "" {
		t.Errorf("deleted mismatch (-want +got):\n%s", diff)
	}
	if fm.Pending() != 0 {
		t.Error("flow should finish after a selection")
	}

	// A stale menu does nothing once its flow finished.
	if err := fm.Router(ctx, session, selected); err != nil {
		t.Fatal(err)
	}
	if len(p.requests) != 1 {
		t.Error("finished flows must not play again")
	}
}

func TestReplayButton(t *testing.T) {
	table := []struct {
		name      string
		channelID string
		deleted   int
	}{
		{"elsewhere replaces the reply", "general", 1},
		{"history card is kept", "history", 0},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			session := &mockSession{}
			p := &fakePlayer{}
			fm := setup(p, &fakeSearcher{})

			i := component(tc.channelID, "replay#https://www.youtube.com/watch?v=dQw4w9WgXcQ")
			if err := fm.Router(context.Background(), session, i); err != nil {
				t.Fatal(err)
			}

			if len(p.requests) != 1 || p.requests[0].PlayCount != 1 {
				t.Errorf("requests = %+v", p.requests)
			}
			if len(session.deleted) != tc.deleted {
				t.Errorf("deleted = %v", session.deleted)
			}
			ephemeral := session.responses[0].Data.Flags&discordgo.MessageFlagsEphemeral != 0
			if ephemeral != (tc.channelID == "history") {
				t.Errorf("ephemeral = %v", ephemeral)
			}
		})
	}
}

func TestStatusCommands(t *testing.T) {
	meta := media.Metadata{Title: "Song", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}

	table := []struct {
		name   string
		player *fakePlayer
		i      *discordgo.InteractionCreate
		want   string
	}{
		{"stop when idle", &fakePlayer{}, command("stop"), presenters.NothingPlaying},
		{"stop", &fakePlayer{stopped: true}, command("stop"), "Stopped."},
		{"track when idle", &fakePlayer{}, command("track"), presenters.NothingPlaying},
		{
			"track",
			&fakePlayer{status: &player.Status{Metadata: meta, Volume: 0.1, Position: 5 * time.Second}},
			command("track"),
			"[Song](https://www.youtube.com/watch?v=dQw4w9WgXcQ)\nVolume: 10\nPosition: 5s",
		},
		{"volume when idle", &fakePlayer{}, command("volume", intOpt("volume", 50)), player.UserMessage(player.ErrNothingPlaying)},
		{
			"volume",
			&fakePlayer{status: &player.Status{Metadata: meta}},
			command("volume", intOpt("volume", 50)),
			"Volume of Song set to 50",
		},
	}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			session := &mockSession{}
			fm := setup(tc.player, &fakeSearcher{})

			if err := fm.Router(context.Background(), session, tc.i); err != nil {
				t.Fatal(err)
			}
			if got := session.responses[0].Data.Content; got != tc.want {
				t.Errorf("content = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestInteractionHandlerReportsOptionErrors(t *testing.T) {
	session := &mockSession{}
	p := &fakePlayer{}
	handle := handler.NewInteractionHandler(setup(p, &fakeSearcher{}))

	handle(session, command("play", stringOpt("music", "https://youtu.be/dQw4w9WgXcQ"), intOpt("volume", 150)))

	if len(p.requests) != 0 {
		t.Error("invalid options must not play")
	}
	if len(session.responses) != 1 || session.responses[0].Data.Flags != discordgo.MessageFlagsEphemeral {
		t.Fatalf("responses = %+v", session.responses)
	}
}

func TestAbandonedSearchesExpire(t *testing.T) {
	session := &mockSession{}
	fm := handler.NewFlowManager(&generator.Sequence{Prefix: "search"})
	s := &fakeSearcher{results: []media.Metadata{{Title: "x", URL: "https://youtu.be/aaaaaaaaaaa"}}}
	handler.RegisterFlows(fm, handler.Deps{Player: &fakePlayer{}, Searcher: s})

	if err := fm.Router(context.Background(), session, command("search", stringOpt("query", "x"))); err != nil {
		t.Fatal(err)
	}
	if fm.Pending() != 1 {
		t.Fatalf("pending = %d", fm.Pending())
	}

	handler.SetFlowClock(fm, func() time.Time { return time.Now().Add(handler.FlowTTL + time.Minute) })
	if err := fm.Router(context.Background(), session, command("search", stringOpt("query", "y"))); err != nil {
		t.Fatal(err)
	}
	if fm.Pending() != 1 {
		t.Errorf("pending = %d, want only the new search", fm.Pending())
	}
}
