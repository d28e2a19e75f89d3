package generation

import (
	"strings"

	"github.com/phambaophuc/image-generator/internal/models"
)

// BuildPayload turns prompt fields into the webhook request body. Fields are
// passed through as written; empty ones are left out.
func BuildPayload(imageType models.ImageType, fields models.PromptFields) models.WebhookPayload {
	contentLabel := "Content"
	if imageType == models.ImageTypeBlog {
		contentLabel = "Intro"
	}

	var lines []string
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("Title", fields.Title)
	add(contentLabel, fields.Content)
	add("Style", fields.Style)
	add("Colour", fields.Colour)

	return models.WebhookPayload{
		ImageType:   imageType.WebhookLabel(),
		ImageDetail: strings.Join(lines, "\n"),
	}
}
