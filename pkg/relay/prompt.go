package relay

// SystemPrompt is sent as the first message of every upstream request.
const SystemPrompt = "You are an assistant for GP practice staff answering NON-CLINICAL NHS App support queries. " +
	"Never request or accept patient-identifiable information. " +
	"If the user includes anything identifiable, refuse and ask them to remove it. " +
	"Structure answers as: What this usually means, Practice checks, Patient steps, Escalation route. " +
	"Keep it practical and short."

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Temperature is the sampling temperature of every upstream request.
const Temperature = 0.2

// ChatMessage is one entry of the upstream message sequence.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the JSON body posted upstream.
type CompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// NewCompletionRequest builds the two-message request for message.
func NewCompletionRequest(model, message string) CompletionRequest {
	return CompletionRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: SystemPrompt},
			{Role: RoleUser, Content: message},
		},
		Temperature: Temperature,
	}
}
