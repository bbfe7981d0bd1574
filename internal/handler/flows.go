package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/player"
	"github.com/glizzus/jukebox/internal/presenters"
)

// Player is the playback surface the commands drive.
type Player interface {
	Play(ctx context.Context, req player.Request) (*player.Result, error)
	Stop(ctx context.Context) (bool, error)
	SetVolume(ctx context.Context, volume float32) (media.Metadata, error)
	NowPlaying(ctx context.Context) (*player.Status, error)
}

var _ Player = (*player.Orchestrator)(nil)

type Searcher interface {
	Search(ctx context.Context, keyword string) ([]media.Metadata, error)
}

type Deps struct {
	Player   Player
	Searcher Searcher
	// HistoryChannelID gets quiet replies; its messages are owned by the worker.
	HistoryChannelID string
}

const (
	stateVolume    = "volume"
	statePlayCount = "play_count"
)

// RegisterFlows adds every command flow to fm.
func RegisterFlows(fm *FlowManager, deps Deps) {
	for _, flow := range Flows(deps) {
		fm.RegisterFlow(flow)
	}
}

// Flows returns the command flows. Their root matchers are disjoint.
func Flows(deps Deps) []*Flow {
	return []*Flow{
		PingFlow,
		{
			ID: "play",
			Root: &Node{
				ID:      "play-link",
				Matcher: isPlayLink,
				Handler: deps.playCommand,
			},
		},
		{
			ID: "search",
			Root: &Node{
				ID:      "search",
				Matcher: isSearch,
				Handler: deps.search,
				Next: []*Node{
					{
						ID:      "search-select",
						Matcher: isComponent(presenters.ComponentIDSearchSelect + ":"),
						Handler: deps.selectResult,
					},
				},
			},
		},
		{
			ID: "replay",
			Root: &Node{
				ID:      "replay",
				Matcher: isComponent(presenters.ComponentIDReplayPrefix),
				Handler: deps.replay,
			},
		},
		{
			ID:   "stop",
			Root: &Node{ID: "stop", Matcher: isCommand(CommandStop), Handler: deps.stop},
		},
		{
			ID:   "volume",
			Root: &Node{ID: "volume", Matcher: isCommand(CommandVolume), Handler: deps.volume},
		},
		{
			ID:   "track",
			Root: &Node{ID: "track", Matcher: isCommand(CommandTrack), Handler: deps.track},
		},
	}
}

var PingFlow = &Flow{
	ID: "ping",
	Root: &Node{
		ID:      "ping",
		Matcher: isCommand(CommandPing),
		Handler: func(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
			return s.InteractionRespond(i.Interaction, presenters.MessageResponse("Pong!"))
		},
	},
}

func isCommand(name string) func(*discordgo.InteractionCreate) bool {
	return func(i *discordgo.InteractionCreate) bool {
		if i.Type != discordgo.InteractionApplicationCommand {
			return false
		}
		return i.ApplicationCommandData().Name == name
	}
}

func isComponent(prefix string) func(*discordgo.InteractionCreate) bool {
	return func(i *discordgo.InteractionCreate) bool {
		if i.Type != discordgo.InteractionMessageComponent {
			return false
		}
		return strings.HasPrefix(i.MessageComponentData().CustomID, prefix)
	}
}

func stringOption(i *discordgo.InteractionCreate, name string) string {
	for _, option := range i.ApplicationCommandData().Options {
		if option.Name == name && option.Type == discordgo.ApplicationCommandOptionString {
			return option.StringValue()
		}
	}
	return ""
}

func isPlayLink(i *discordgo.InteractionCreate) bool {
	if !isCommand(CommandPlay)(i) {
		return false
	}
	_, ok := audio.Classify(stringOption(i, OptionMusic))
	return ok
}

// isSearch matches the search command and play commands given keywords.
func isSearch(i *discordgo.InteractionCreate) bool {
	if isCommand(CommandSearch)(i) {
		return true
	}
	return isCommand(CommandPlay)(i) && !isPlayLink(i)
}

func (d Deps) playCommand(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
	req, err := CommandToPlayRequest(OptionMusic, i.ApplicationCommandData().Options)
	if err != nil {
		return err
	}
	return d.play(ctx, s, i, *req)
}

func (d Deps) search(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
	data := i.ApplicationCommandData()
	keywordOption := OptionQuery
	if data.Name == CommandPlay {
		keywordOption = OptionMusic
	}

	req, err := CommandToPlayRequest(keywordOption, data.Options)
	if err != nil {
		return err
	}

	results, err := d.Searcher.Search(ctx, req.Keyword)
	if err != nil {
		slog.Warn("Search failed", "query", req.Keyword, "error", err)
		return s.InteractionRespond(i.Interaction, presenters.EphemeralResponse(player.UserMessage(err)))
	}

	fc.State[stateVolume] = req.Volume
	fc.State[statePlayCount] = req.PlayCount
	return s.InteractionRespond(i.Interaction, presenters.BuildSearchResponse(req.Keyword, results, fc.InstanceID))
}

func (d Deps) selectResult(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return nil
	}

	req := PlayRequest{Keyword: values[0], PlayCount: 1}
	if volume, ok := fc.State[stateVolume].(*float32); ok {
		req.Volume = volume
	}
	if n, ok := fc.State[statePlayCount].(int); ok {
		req.PlayCount = n
	}

	// The menu is spent once something was picked.
	d.deleteSource(s, i)
	return d.play(ctx, s, i, req)
}

func (d Deps) replay(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
	url, ok := presenters.ReplayURL(i.MessageComponentData().CustomID)
	if !ok {
		return nil
	}

	// History cards stay; replies elsewhere are replaced by the new one.
	if i.ChannelID != d.HistoryChannelID {
		d.deleteSource(s, i)
	}
	return d.play(ctx, s, i, PlayRequest{Keyword: url, PlayCount: 1})
}

func (d Deps) deleteSource(s DiscordSession, i *discordgo.InteractionCreate) {
	if i.Message == nil {
		return
	}
	if err := s.ChannelMessageDelete(i.ChannelID, i.Message.ID); err != nil {
		slog.Warn("Failed to delete message", "channelID", i.ChannelID, "messageID", i.Message.ID, "error", err)
	}
}

func (d Deps) reply(i *discordgo.InteractionCreate, content string) *discordgo.InteractionResponse {
	if i.ChannelID == d.HistoryChannelID {
		return presenters.EphemeralResponse(content)
	}
	return presenters.MessageResponse(content)
}

// play acknowledges the interaction at once, since resolving and downloading
// outlast Discord's response deadline, then edits the reply with the outcome.
func (d Deps) play(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate, req PlayRequest) error {
	kind, ok := audio.Classify(req.Keyword)
	if !ok {
		return &UserError{Message: "Give a YouTube or SoundCloud link, or use /search."}
	}

	if err := s.InteractionRespond(i.Interaction, d.reply(i, "Loading "+req.Keyword)); err != nil {
		return fmt.Errorf("failed to acknowledge play: %w", err)
	}

	result, err := d.Player.Play(ctx, player.Request{
		Kind:       kind,
		Identifier: strings.TrimSpace(req.Keyword),
		Volume:     req.Volume,
		PlayCount:  req.PlayCount,
		UserID:     interactionUserID(i),
	})

	var edit *discordgo.WebhookEdit
	if err != nil {
		slog.Warn("Play failed", "keyword", req.Keyword, "error", err)
		edit = presenters.ContentEdit(player.UserMessage(err))
	} else {
		edit = presenters.PlayingEdit(result.Metadata, result.Volume)
	}

	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		return fmt.Errorf("failed to edit play response: %w", err)
	}
	return nil
}

func (d Deps) stop(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
	stopped, err := d.Player.Stop(ctx)
	var content string
	switch {
	case err != nil:
		slog.Warn("Stop failed", "error", err)
		content = player.UserMessage(err)
	case stopped:
		content = "Stopped."
	default:
		content = presenters.NothingPlaying
	}
	return s.InteractionRespond(i.Interaction, d.reply(i, content))
}

func (d Deps) volume(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
	var option *discordgo.ApplicationCommandInteractionDataOption
	for _, o := range i.ApplicationCommandData().Options {
		if o.Name == OptionVolume {
			option = o
		}
	}
	if option == nil {
		return &InvalidOptionError{Name: OptionVolume, Reason: "is required"}
	}
	volume, err := VolumeOption(option)
	if err != nil {
		return err
	}

	meta, err := d.Player.SetVolume(ctx, volume)
	content := presenters.VolumeContent(meta, volume)
	if err != nil {
		content = player.UserMessage(err)
	}
	return s.InteractionRespond(i.Interaction, d.reply(i, content))
}

func (d Deps) track(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate, fc *FlowContext) error {
	status, err := d.Player.NowPlaying(ctx)
	var content string
	switch {
	case errors.Is(err, player.ErrNothingPlaying):
		content = presenters.NothingPlaying
	case err != nil:
		content = player.UserMessage(err)
	default:
		content = presenters.NowPlayingContent(status)
	}
	return s.InteractionRespond(i.Interaction, d.reply(i, content))
}
