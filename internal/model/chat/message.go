package chat

import (
	"bytes"
	"encoding/json"
)

// Roles recognised in an incoming chat-completion payload.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry of the client supplied `messages` array.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// UnmarshalJSON never fails: a non-object element decodes to an empty
// Message and a role that is not a string is dropped.
func (m *Message) UnmarshalJSON(data []byte) error {
	*m = Message{}

	var raw struct {
		Role    json.RawMessage `json:"role"`
		Content Content         `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	var role string
	if err := json.Unmarshal(raw.Role, &role); err == nil {
		m.Role = role
	}
	m.Content = raw.Content
	return nil
}

// ContentPart is one typed element of an array-form message content.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Content holds either a plain string or an ordered list of typed parts.
// Any other JSON shape decodes without error into an empty Content.
type Content struct {
	text  *string
	parts []ContentPart
}

// TextContent builds a plain string content.
func TextContent(s string) Content {
	return Content{text: &s}
}

// PartsContent builds an array-form content.
func PartsContent(parts ...ContentPart) Content {
	return Content{parts: append([]ContentPart{}, parts...)}
}

// UnmarshalJSON accepts a string, an array of parts or anything else.
// Malformed array elements are skipped instead of failing the request.
func (c *Content) UnmarshalJSON(data []byte) error {
	*c = Content{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			c.text = &s
		}
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil
		}
		c.parts = make([]ContentPart, 0, len(raw))
		for _, item := range raw {
			var part ContentPart
			if err := json.Unmarshal(item, &part); err != nil {
				continue
			}
			c.parts = append(c.parts, part)
		}
	}
	return nil
}

// MarshalJSON writes the content back in the shape it was received.
func (c Content) MarshalJSON() ([]byte, error) {
	switch {
	case c.text != nil:
		return json.Marshal(*c.text)
	case c.parts != nil:
		return json.Marshal(c.parts)
	default:
		return []byte("null"), nil
	}
}
