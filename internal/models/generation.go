package models

import "time"

type ImageType string

const (
	ImageTypeBlog        ImageType = "blog"
	ImageTypeInfographic ImageType = "infographic"
)

func (t ImageType) IsValid() bool {
	switch t {
	case ImageTypeBlog, ImageTypeInfographic:
		return true
	}
	return false
}

// WebhookLabel is the image_type value the webhook expects.
func (t ImageType) WebhookLabel() string {
	if t == ImageTypeInfographic {
		return "Infographic"
	}
	return "Featured Image"
}

// PromptFields is the user-supplied content of one generation. The fields are
// passed through to the webhook as-is.
type PromptFields struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content" binding:"required"`
	Style   string `json:"style,omitempty"`
	Colour  string `json:"colour,omitempty"`
}

type GenerateRequest struct {
	Type ImageType `json:"type" binding:"required,oneof=blog infographic"`
	PromptFields
}

// WebhookPayload is the JSON body posted to the generation webhook.
type WebhookPayload struct {
	ImageType   string `json:"image_type"`
	ImageDetail string `json:"image_detail"`
}

type GenerateResponse struct {
	Record           *HistoryRecord `json:"record"`
	RemainingCredits int            `json:"remaining_credits"`
}

// GeneratedImage is what a successful submission hands to the bookkeeping
// collaborators.
type GeneratedImage struct {
	ID        string
	UserID    string
	Type      ImageType
	Base64    string
	Fields    PromptFields
	Timestamp time.Time
}
