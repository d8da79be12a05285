package relay

import "encoding/json"

// NoReply is returned when no decoder recognizes the upstream response.
const NoReply = "No reply."

// Response shapes.
const (
	ShapeReply     = "reply"
	ShapeOutput    = "output"
	ShapeOpenAI    = "openai_chat"
	ShapeAnthropic = "anthropic_messages"
	ShapeNone      = "none"
)

// decoder extracts reply text from one known response shape. It returns
// "" when the body does not have that shape.
type decoder struct {
	shape  string
	decode func(fields map[string]json.RawMessage) string
}

var decoders = []decoder{
	{shape: ShapeReply, decode: stringField("reply")},
	{shape: ShapeOutput, decode: stringField("output")},
	{shape: ShapeOpenAI, decode: openAIChat},
	{shape: ShapeAnthropic, decode: anthropicMessages},
}

// ExtractReply returns the reply text in body and the name of the shape it
// was found in. It never fails: unrecognized bodies yield NoReply and
// ShapeNone.
func ExtractReply(body []byte) (reply string, shape string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return NoReply, ShapeNone
	}

	for _, d := range decoders {
		if text := d.decode(fields); text != "" {
			return text, d.shape
		}
	}
	return NoReply, ShapeNone
}

func stringField(name string) func(map[string]json.RawMessage) string {
	return func(fields map[string]json.RawMessage) string {
		var s string
		if raw, ok := fields[name]; ok {
			_ = json.Unmarshal(raw, &s)
		}
		return s
	}
}

func openAIChat(fields map[string]json.RawMessage) string {
	raw, ok := fields["choices"]
	if !ok {
		return ""
	}

	var choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &choices); err != nil || len(choices) == 0 {
		return ""
	}
	return choices[0].Message.Content
}

func anthropicMessages(fields map[string]json.RawMessage) string {
	raw, ok := fields["content"]
	if !ok {
		return ""
	}

	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			return b.Text
		}
	}
	return ""
}
