package generation

import (
	"testing"

	"github.com/phambaophuc/image-generator/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildPayload(t *testing.T) {
	tests := []struct {
		name      string
		imageType models.ImageType
		fields    models.PromptFields
		want      models.WebhookPayload
	}{
		{
			name:      "blog with every field",
			imageType: models.ImageTypeBlog,
			fields:    models.PromptFields{Title: "Go", Content: "Why Go?", Style: "flat", Colour: "teal"},
			want: models.WebhookPayload{
				ImageType:   "Featured Image",
				ImageDetail: "Title: Go\nIntro: Why Go?\nStyle: flat\nColour: teal",
			},
		},
		{
			name:      "infographic content only",
			imageType: models.ImageTypeInfographic,
			fields:    models.PromptFields{Content: "  5 steps to ship  ", Style: " "},
			want: models.WebhookPayload{
				ImageType:   "Infographic",
				ImageDetail: "Content: 5 steps to ship",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPayload(tt.imageType, tt.fields))
		})
	}
}
