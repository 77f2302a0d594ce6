package client

import (
	"encoding/json"
	"regexp"
	"strings"
)

// The response half of the chat-completion wire format. Providers disagree on
// where generated images go, so the message is decoded loosely and searched.

type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
	Error   *APIError    `json:"error"`
}

type APIError struct {
	Message string      `json:"message"`
	Code    interface{} `json:"code,omitempty"`
}

type ChatChoice struct {
	Message *ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Text    string          `json:"text"`
	Images  []ResponsePart  `json:"images"`
}

// ResponsePart is one entry of either the dedicated images list or the
// content array.
type ResponsePart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text"`
	URL      string    `json:"url"`
	ImageURL *ImageURL `json:"image_url"`
}

func (p *ResponsePart) url() string {
	if p.ImageURL != nil && p.ImageURL.URL != "" {
		return p.ImageURL.URL
	}
	return p.URL
}

// UnmarshalJSON accepts both {"url": "..."} and a bare URL string.
func (u *ImageURL) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		u.URL = s
		return nil
	}
	type alias ImageURL
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*u = ImageURL(a)
	return nil
}

var dataImagePattern = regexp.MustCompile(`data:image/[^;]+;base64,[A-Za-z0-9+/=]+`)

// contentParts decodes the content field, which may be a string, an array of
// parts or a single part object.
func (m *ResponseMessage) contentParts() ([]ResponsePart, string) {
	if len(m.Content) == 0 {
		return nil, ""
	}
	var text string
	if err := json.Unmarshal(m.Content, &text); err == nil {
		return nil, text
	}
	var parts []ResponsePart
	if err := json.Unmarshal(m.Content, &parts); err == nil {
		return parts, ""
	}
	var single ResponsePart
	if err := json.Unmarshal(m.Content, &single); err == nil {
		return []ResponsePart{single}, ""
	}
	return nil, ""
}

// ExtractImages pulls image references out of a response message. The
// strategies run in order and the first that finds anything wins:
//  1. the dedicated images list
//  2. image parts inside the content
//  3. base64 image data blocks embedded in the message text
func (m *ResponseMessage) ExtractImages() []string {
	retv := make([]string, 0)
	for i := range m.Images {
		if u := m.Images[i].url(); u != "" {
			retv = append(retv, u)
		}
	}
	if len(retv) > 0 {
		return retv
	}

	parts, text := m.contentParts()
	for i := range parts {
		p := &parts[i]
		if p.Type != "image_url" && p.ImageURL == nil {
			continue
		}
		if u := p.url(); u != "" {
			retv = append(retv, u)
		}
	}
	if len(retv) > 0 {
		return retv
	}

	// fall back to scanning whatever text came back
	texts := make([]string, 0, len(parts)+2)
	if text != "" {
		texts = append(texts, text)
	}
	for _, p := range parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	if m.Text != "" {
		texts = append(texts, m.Text)
	}
	return append(retv, dataImagePattern.FindAllString(strings.Join(texts, "\n"), -1)...)
}
