package client

// The request half of the chat-completion wire format.

type ChatRequest struct {
	Model            string           `json:"model"`
	Messages         []ChatMessage    `json:"messages"`
	Modalities       []string         `json:"modalities"`
	Stream           bool             `json:"stream"`
	MaxTokens        int              `json:"max_tokens"`
	GenerationConfig GenerationConfig `json:"generation_config"`
}

type GenerationConfig struct {
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

// ChatMessage content is either a plain string (system turn) or a list of
// ContentParts (user turn).
type ChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// newChatRequest lays out a generation request: the consistency instruction
// as the system turn, then one user turn holding every image in order followed
// by the prompt text.
func (c *Client) newChatRequest(prompt string, images []string) *ChatRequest {
	parts := make([]ContentPart, 0, len(images)+1)
	for _, url := range images {
		parts = append(parts, ContentPart{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: url},
		})
	}
	parts = append(parts, ContentPart{Type: "text", Text: prompt})

	return &ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: SystemInstruction},
			{Role: "user", Content: parts},
		},
		Modalities: []string{"image", "text"},
		Stream:     false,
		MaxTokens:  MaxTokens,
		GenerationConfig: GenerationConfig{
			Size:    ImageSize,
			Quality: ImageQuality,
		},
	}
}
