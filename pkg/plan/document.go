package plan

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// ParseDocument reads a plan document: YAML frontmatter holding the plan and
// its goals, followed by the plan description as markdown body.
func ParseDocument(content string) (*Draft, error) {
	content = strings.TrimSpace(content)

	if !strings.HasPrefix(content, frontmatterDelimiter) {
		return nil, fmt.Errorf("plan document must start with %q frontmatter", frontmatterDelimiter)
	}

	rest := content[len(frontmatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontmatterDelimiter)
	if idx == -1 {
		return nil, fmt.Errorf("unclosed frontmatter delimiter")
	}

	yamlContent := rest[:idx]
	body := rest[idx+len("\n"+frontmatterDelimiter):]

	var d Draft
	if err := yaml.Unmarshal([]byte(yamlContent), &d); err != nil {
		return nil, fmt.Errorf("parsing frontmatter YAML: %w", err)
	}

	d.Description = strings.TrimSpace(body)
	d.Normalize()
	return &d, nil
}

// SerializeDocument renders a draft as a plan document.
func SerializeDocument(d Draft) (string, error) {
	yamlBytes, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("serializing frontmatter YAML: %w", err)
	}

	var b strings.Builder
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(string(yamlBytes), "\n"))
	b.WriteString("\n")
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n")
	if d.Description != "" {
		b.WriteString("\n")
		b.WriteString(d.Description)
		if !strings.HasSuffix(d.Description, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// DocumentTemplate is the starting point for `tempo plan create --file`.
const DocumentTemplate = `---
title: ""
year: 0
goals:
  - name: ""
    score: 10
    timeframe: ""
    details: |-
      first task
      second task
---

Describe the plan here.
`
