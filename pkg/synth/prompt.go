package synth

import (
	"fmt"
	"strings"

	"golf-concierge-be/pkg/llm"
	"golf-concierge-be/pkg/retrieval"
)

// InsufficientContext is the exact reply the model is told to give when the
// passages don't answer the question.
const InsufficientContext = "INSUFFICIENT_CONTEXT"

const maxHistoryTurns = 6

// PromptBuilder assembles the grounded prompt for one question.
type PromptBuilder struct {
	query    string
	passages []retrieval.Passage
	history  []llm.Message
}

func NewPromptBuilder(query string, passages []retrieval.Passage, history []llm.Message) *PromptBuilder {
	return &PromptBuilder{query: query, passages: passages, history: history}
}

// Messages returns system instruction, recent history and the grounded
// user turn, in that order.
func (b *PromptBuilder) Messages() []llm.Message {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: b.system()}}

	history := b.history
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" || m.Role == llm.RoleSystem {
			continue
		}
		msgs = append(msgs, llm.Message{Role: llm.NormalizeRole(m.Role), Content: m.Content})
	}

	return append(msgs, llm.Message{Role: llm.RoleUser, Content: b.user()})
}

func (b *PromptBuilder) system() string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a golf concierge answering questions for visitors of a golf website.\n")
	prompt.WriteString("Answer only from the numbered reference material supplied with each question.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Use only facts stated in the reference material. Do not rely on outside knowledge\n")
	prompt.WriteString("2. Cite every fact with the passage number in square brackets, e.g. [1] or [2][3]\n")
	prompt.WriteString("3. Keep answers short: a few sentences or a brief list, in Markdown\n")
	prompt.WriteString("4. Never invent course names, prices, phone numbers or URLs\n")
	prompt.WriteString(fmt.Sprintf("5. If the material does not answer the question, reply with exactly %s and nothing else\n", InsufficientContext))
	prompt.WriteString("</guidelines>")

	return prompt.String()
}

func (b *PromptBuilder) user() string {
	var prompt strings.Builder

	prompt.WriteString("<reference_material>\n")
	for i, p := range b.passages {
		prompt.WriteString(fmt.Sprintf("[%d] %s (%s)\n", i+1, p.Title, p.SourceURL))
		prompt.WriteString(strings.TrimSpace(p.Text))
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</reference_material>\n\n")

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n</user_question>")

	return prompt.String()
}
