package plan

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pre-compiled patterns. Plan documents frequently arrive wrapped in
// markdown fences or with minor JSON sloppiness, so parsing runs through a
// sequence of cleanup strategies instead of failing on the first error.
var (
	codeFenceStartRegex = regexp.MustCompile(`(?s)^` + "`" + `{3}(?:json|yaml|yml)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}\s*$`)
	codeFenceAnyRegex   = regexp.MustCompile(`(?s)` + "`" + `{3}(?:json|yaml|yml)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}`)

	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)

	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// parseDocument parses a plan document with fallback strategies:
//
//  1. direct JSON parse
//  2. strip markdown code fences and retry
//  3. remove trailing commas and retry
//  4. extract an embedded JSON object from mixed content and retry
//  5. YAML parse of the fence-stripped text
//
// A structural error is returned only when every strategy fails.
func parseDocument(text string) (*document, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("plan document is empty")
	}

	if doc, err := tryJSON(trimmed); err == nil {
		return doc, nil
	}

	stripped := removeCodeFences(trimmed)
	if stripped != trimmed {
		if doc, err := tryJSON(stripped); err == nil {
			return doc, nil
		}
	}

	cleaned := trailingCommaRegex.ReplaceAllString(stripped, "$1")
	if doc, err := tryJSON(cleaned); err == nil {
		return doc, nil
	}

	if extracted := objectRegex.FindString(cleaned); extracted != "" {
		if doc, err := tryJSON(extracted); err == nil {
			return doc, nil
		}
	}

	if doc, err := tryYAML(stripped); err == nil {
		return doc, nil
	} else {
		slog.Debug("plan document failed all parse strategies", "error", err, "preview", truncate(trimmed, 100))
	}

	return nil, fmt.Errorf("plan document is not valid JSON or YAML")
}

func tryJSON(text string) (*document, error) {
	var doc document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func tryYAML(text string) (*document, error) {
	var doc document
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	// yaml.Unmarshal accepts plain scalars; require an actual task array so
	// prose doesn't parse as an empty document.
	if len(doc.records()) == 0 {
		return nil, fmt.Errorf("no task array found")
	}
	return &doc, nil
}

// removeCodeFences strips markdown code fences from text.
func removeCodeFences(text string) string {
	cleaned := codeFenceStartRegex.ReplaceAllString(text, "$1")
	if cleaned == text {
		cleaned = codeFenceAnyRegex.ReplaceAllString(text, "$1")
	}
	return strings.TrimSpace(cleaned)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
