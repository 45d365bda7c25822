package chat

import (
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```\n?(.*?)\n?```")

// Text flattens the content: a plain string verbatim, array parts of type
// "text" joined by newline, anything else as the empty string.
func (c Content) Text() string {
	text, _ := c.extract()
	return text
}

func (c Content) extract() (string, bool) {
	if c.text != nil {
		return *c.text, true
	}
	if c.parts != nil {
		texts := make([]string, 0, len(c.parts))
		for _, part := range c.parts {
			if part.Type == "text" {
				texts = append(texts, part.Text)
			}
		}
		return strings.Join(texts, "\n"), true
	}
	return "", false
}

// UserText concatenates the text of every user message, newline separated,
// in message order.
func UserText(messages []Message) string {
	texts := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		texts = append(texts, msg.Content.Text())
	}
	return strings.Join(texts, "\n")
}

// SystemPrompt returns the text of the first system message. Later system
// messages are ignored. ok is false when there is no usable system message.
func SystemPrompt(messages []Message) (string, bool) {
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			return msg.Content.extract()
		}
	}
	return "", false
}

// DictatedText strips client scaffolding around a dictation: when the input
// contains a ``` fenced block, only the trimmed body of the first block is
// returned, otherwise the input unchanged.
func DictatedText(input string) string {
	match := fencedBlock.FindStringSubmatch(input)
	if match == nil {
		return input
	}
	return strings.TrimSpace(match[1])
}
