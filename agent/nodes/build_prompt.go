package turnnode

import (
	"fmt"
	"sort"
	"strings"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

// BuildPrompt assembles the oracle instruction: the fixed system prompt plus
// a user section carrying the bounded recent-turn window, the durable context
// facts and the new message. Prompt size stays bounded no matter how long the
// conversation runs.
func BuildPrompt(in *GraphState, systemPrompt string) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.SystemPrompt = systemPrompt

	var b strings.Builder
	if len(in.ContextFacts) > 0 {
		b.WriteString("Conversation context:\n")
		keys := make([]string, 0, len(in.ContextFacts))
		for k := range in.ContextFacts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", k, in.ContextFacts[k])
		}
		b.WriteString("\n")
	}

	if len(in.Window) > 0 {
		b.WriteString("Recent turns:\n")
		for _, turn := range in.Window {
			fmt.Fprintf(&b, "user: %s\n", turn.UserText)
			if turn.Reply != "" {
				fmt.Fprintf(&b, "assistant: %s\n", turn.Reply)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User message: %s", in.UserText)
	in.UserPrompt = b.String()
	return in, nil
}
