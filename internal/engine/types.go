package engine

// Turn roles. Backends translate these into their own vocabulary.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one prior chat message replayed ahead of the prompt.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is what gets sent in a single call. History is empty unless the
// session replays its last exchange as chat turns.
type Prompt struct {
	Text    string
	History []Turn
}
