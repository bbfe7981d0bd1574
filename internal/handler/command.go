package handler

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandPing   = "ping"
	CommandPlay   = "play"
	CommandSearch = "search"
	CommandStop   = "stop"
	CommandVolume = "volume"
	CommandTrack  = "track"

	OptionMusic     = "music"
	OptionQuery     = "query"
	OptionVolume    = "volume"
	OptionPlayCount = "play_count"
)

// MaxPlayCount bounds the play_count option.
const MaxPlayCount = 10

var (
	zero = 0.0
	one  = 1.0
)

var volumeOption = &discordgo.ApplicationCommandOption{
	Name:        OptionVolume,
	Type:        discordgo.ApplicationCommandOptionInteger,
	Description: "Volume from 0 to 100. Defaults to the last volume used for this track.",
	MinValue:    &zero,
	MaxValue:    100,
}

var playCountOption = &discordgo.ApplicationCommandOption{
	Name:        OptionPlayCount,
	Type:        discordgo.ApplicationCommandOptionInteger,
	Description: "How many times to play the track. Only short tracks can repeat.",
	MinValue:    &one,
	MaxValue:    MaxPlayCount,
}

// Commands is a list of all the commands the bot can handle.
// This is used to register the commands with Discord.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        CommandPing,
		Description: "Check that the bot is alive",
	},
	{
		Name:        CommandPlay,
		Description: "Play a YouTube or SoundCloud link, or search YouTube",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        OptionMusic,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "A link or search keywords",
				Required:    true,
			},
			volumeOption,
			playCountOption,
		},
	},
	{
		Name:        CommandSearch,
		Description: "Search YouTube and pick a result to play",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        OptionQuery,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "Search keywords",
				Required:    true,
			},
			volumeOption,
			playCountOption,
		},
	},
	{
		Name:        CommandStop,
		Description: "Stop the current track",
	},
	{
		Name:        CommandVolume,
		Description: "Change the volume of the current track",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        OptionVolume,
				Type:        discordgo.ApplicationCommandOptionInteger,
				Description: "Volume from 0 to 100",
				Required:    true,
				MinValue:    &zero,
				MaxValue:    100,
			},
		},
	},
	{
		Name:        CommandTrack,
		Description: "Show the current track",
	},
}

func EstablishCommands(s *discordgo.Session, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, Commands)
	if err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}
	return nil
}
