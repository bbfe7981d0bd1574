package presenters

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/jukebox/internal/media"
)

// MaxSearchOptions bounds how many results are offered in a select menu.
const MaxSearchOptions = 5

// ComponentIDSearchSelect is the custom id prefix of search result menus.
const ComponentIDSearchSelect = "search_select"

var searchSelectMinValues = 1

var numberEmoji = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣"}

// Truncate shortens s to at most n runes, marking the cut with " ...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-4]) + " ..."
}

var noSearchResultsResponse = &discordgo.InteractionResponse{
	Type: discordgo.InteractionResponseChannelMessageWithSource,
	Data: &discordgo.InteractionResponseData{
		Content: "No results found",
	},
}

// BuildSearchResponse offers the results in a select menu. Option values are
// the watch URLs; instanceID ties the menu to the search that produced it.
func BuildSearchResponse(query string, results []media.Metadata, instanceID string) *discordgo.InteractionResponse {
	if len(results) == 0 {
		return noSearchResultsResponse
	}

	var options []discordgo.SelectMenuOption
	for i, meta := range results {
		if i == MaxSearchOptions {
			break
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       Truncate(meta.Title, 100),
			Description: Truncate(meta.UploadedBy, 100),
			Value:       meta.URL,
			Emoji:       &discordgo.ComponentEmoji{Name: numberEmoji[i]},
		})
	}

	menu := discordgo.SelectMenu{
		CustomID:    ComponentIDSearchSelect + ":" + instanceID,
		Placeholder: "Choose a track to play",
		MinValues:   &searchSelectMinValues,
		MaxValues:   1,
		Options:     options,
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("**Results for** _%s_", strings.TrimSpace(query)),
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{menu},
				},
			},
		},
	}
}
