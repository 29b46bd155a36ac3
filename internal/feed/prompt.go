package feed

import (
	"fmt"
	"strings"

	"github.com/johnrirwin/smartnews/internal/models"
)

const (
	historySignal  = 5
	headlineSignal = 5
)

// BuildPrompt renders the feed instruction for a profile. headlines are
// optional current wire titles offered as extra context.
func BuildPrompt(profile models.UserProfile, headlines []string) string {
	interests := make([]string, 0, len(profile.Interests))
	for _, c := range profile.Interests {
		interests = append(interests, string(c))
	}
	interestText := strings.Join(interests, ", ")
	if interestText == "" {
		interestText = "latest major news"
	}

	locationText := "in India"
	if profile.Location != nil && strings.TrimSpace(profile.Location.Region) != "" {
		locationText = fmt.Sprintf("in %s, India", profile.Location.Region)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Find the latest important news stories specifically for a user interested in %s.\n", interestText)
	fmt.Fprintf(&b, "PRIORITY 1: Major news from India %s.\n", locationText)
	b.WriteString("PRIORITY 2: Global international news relevant to an Indian audience.\n")

	if recent := profile.RecentTitles(historySignal); len(recent) > 0 {
		fmt.Fprintf(&b, "The user recently read: %s. Lean slightly toward related stories without repeating them.\n",
			strings.Join(recent, " | "))
	}

	if len(headlines) > 0 {
		if len(headlines) > headlineSignal {
			headlines = headlines[:headlineSignal]
		}
		b.WriteString("Current wire headlines, for context only:\n")
		for _, h := range headlines {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}

	b.WriteString("\nFor each article, provide:\n")
	b.WriteString("- Title\n")
	b.WriteString("- Concise 2-sentence summary\n")
	b.WriteString("- Source name\n")
	b.WriteString("- Original URL\n")
	b.WriteString("- Image URL if one is available, otherwise an empty string\n")
	fmt.Fprintf(&b, "- Category (one of: %s)\n", categoryList())
	b.WriteString("- Whether it is an Indian source (boolean)\n")
	b.WriteString("- Estimated credibility score (0-100) based on source reputation\n")
	b.WriteString("- Similarity score (0-100) for how closely it matches the user's interests\n")

	return b.String()
}
