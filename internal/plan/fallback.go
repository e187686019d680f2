package plan

import (
	"encoding/json"

	"github.com/dispatchhq/dispatch/internal/types"
)

// FallbackDocument synthesizes a single-blueprint plan document from a
// mission's existing statement or free-text input, for use when no plan has
// been authored yet. The result round-trips through Validate unchanged.
func FallbackDocument(m *types.Mission, agentID string) string {
	instructions := m.Statement
	if instructions == "" {
		instructions = m.InputText
	}
	title := m.Title
	if title == "" {
		title = "Complete mission"
	}

	doc := document{
		Tasks: []record{
			{
				Key:          "task-1",
				Title:        title,
				Instructions: instructions,
				AgentID:      agentID,
				Priority:     2,
			},
		},
	}

	// A fixed struct never fails to marshal.
	out, _ := json.MarshalIndent(doc, "", "  ")
	return string(out)
}
