package handlers

import (
	"strings"

	"ainews/internal/features/digest/models"

	twmerge "github.com/Oudwins/tailwind-merge-go"
)

//go:generate templ generate

const (
	cardBase      = "rounded-lg border border-gray-200 bg-white p-6 shadow-sm"
	cardHighlight = "border-indigo-400 shadow-md"
)

// cardClass highlights the top pick
func cardClass(rank int) string {
	if rank == 1 {
		return twmerge.Merge(cardBase, cardHighlight)
	}
	return cardBase
}

// Caption is the plain text version of a post, ready to paste into a social network
func Caption(post models.TopPost) string {
	var sb strings.Builder
	sb.WriteString(post.TitleVI + "\n")
	for _, b := range post.Bullets {
		sb.WriteString("• " + b + "\n")
	}
	if post.SoWhatVN != "" {
		sb.WriteString(post.SoWhatVN + "\n")
	}
	if len(post.Hashtags) > 0 {
		sb.WriteString(strings.Join(post.Hashtags, " ") + "\n")
	}
	sb.WriteString("Nguồn: " + post.Attribution + " " + post.URL)
	return sb.String()
}
