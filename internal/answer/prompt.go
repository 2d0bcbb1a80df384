package answer

import "strings"

const preamble = "You are a friendly desktop assistant. Keep answers short and clear."

// BuildPrompt embeds the session context and the question in the fixed
// template. The context block is left out entirely when empty.
func BuildPrompt(context, question string) string {
	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n\n")
	if context = strings.TrimSpace(context); context != "" {
		sb.WriteString(context)
		sb.WriteString("\n\n")
	}
	sb.WriteString("User: ")
	sb.WriteString(question)
	sb.WriteString("\nAssistant:")
	return sb.String()
}
