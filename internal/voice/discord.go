package voice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// VoiceJoiner is the part of *discordgo.Session used to join channels.
type VoiceJoiner interface {
	ChannelVoiceJoin(guildID, channelID string, mute, deaf bool) (*discordgo.VoiceConnection, error)
}

// Manager keeps one Call per guild.
type Manager struct {
	session VoiceJoiner

	mu    sync.Mutex
	calls map[string]*Call
}

func NewManager(session VoiceJoiner) *Manager {
	return &Manager{session: session, calls: make(map[string]*Call)}
}

var _ Joiner = (*Manager)(nil)

// Join joins channelID, reusing the guild's call when it is already in that
// channel and ready.
func (m *Manager) Join(ctx context.Context, guildID, channelID string) (Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if call, ok := m.calls[guildID]; ok {
		if call.vc.ChannelID == channelID && call.vc.Ready {
			return call, nil
		}
		call.Stop()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vc, err := m.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("unable to join the voice channel: %w", err)
	}

	call := &Call{vc: vc, transport: discordTransport{vc: vc}}
	m.calls[guildID] = call
	slog.Info("joined voice channel", "guild", guildID, "channel", channelID)
	return call, nil
}

// Leave stops playback and disconnects from the guild's voice channel.
func (m *Manager) Leave(guildID string) error {
	m.mu.Lock()
	call, ok := m.calls[guildID]
	delete(m.calls, guildID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	call.Stop()
	if err := call.vc.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	return nil
}

// LeaveAll disconnects every call. It is meant for shutdown.
func (m *Manager) LeaveAll() {
	m.mu.Lock()
	guilds := make([]string, 0, len(m.calls))
	for guildID := range m.calls {
		guilds = append(guilds, guildID)
	}
	m.mu.Unlock()

	for _, guildID := range guilds {
		if err := m.Leave(guildID); err != nil {
			slog.Error("failed to leave voice channel", "guild", guildID, "error", err)
		}
	}
}

type discordTransport struct {
	vc *discordgo.VoiceConnection
}

func (t discordTransport) Speaking(speaking bool) error {
	return t.vc.Speaking(speaking)
}

func (t discordTransport) Frames() chan<- []byte {
	return t.vc.OpusSend
}

// Call is a joined voice session. Attach and Stop serialize on its lock.
type Call struct {
	vc        *discordgo.VoiceConnection
	transport Transport

	mu     sync.Mutex
	tracks []*Track
}

// NewCall wraps a transport that is already connected.
func NewCall(transport Transport) *Call {
	return &Call{transport: transport}
}

var _ Conn = (*Call)(nil)

func (c *Call) Attach(src io.ReadCloser) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := newTrack(src, c.transport)
	c.tracks = append(c.tracks, t)
	return t
}

func (c *Call) Stop() {
	c.mu.Lock()
	tracks := c.tracks
	c.tracks = nil
	c.mu.Unlock()

	for _, t := range tracks {
		t.Stop()
	}
}
