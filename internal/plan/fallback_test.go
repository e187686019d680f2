package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchhq/dispatch/internal/types"
)

func TestFallbackDocumentValidates(t *testing.T) {
	m := &types.Mission{
		Title:     "Migrate billing exports",
		Statement: "Move the nightly export job to the new pipeline.",
	}

	doc := FallbackDocument(m, "coder")
	result := Validate(doc, testRoster())

	require.True(t, result.Valid, "errors: %v", result.Errors)
	require.Len(t, result.Blueprints, 1)
	assert.Equal(t, "task-1", result.Blueprints[0].Key)
	assert.Equal(t, m.Title, result.Blueprints[0].Title)
	assert.Equal(t, m.Statement, result.Blueprints[0].Instructions)
}

func TestFallbackDocumentUsesInputText(t *testing.T) {
	m := &types.Mission{Title: "Untitled", InputText: "rough notes"}

	doc := FallbackDocument(m, "coder")
	result := Validate(doc, testRoster())

	require.True(t, result.Valid)
	assert.Equal(t, "rough notes", result.Blueprints[0].Instructions)
}
