package utils

import (
	"strings"
	"testing"
)

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain", "  ## Overview\n\nText  ", "## Overview\n\nText"},
		{"Markdown fence", "```markdown\n## Overview\n```", "## Overview"},
		{"Generic fence", "```\n## Overview\n```", "## Overview"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanMarkdown(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestValidateMarkdown(t *testing.T) {
	if !ValidateMarkdown("## Title\n\nBody") {
		t.Error("Expected heading document to validate")
	}
	if ValidateMarkdown("") {
		t.Error("Expected empty document to be rejected")
	}
}

func TestMarkdownToHTML(t *testing.T) {
	html, err := MarkdownToHTML("## Conclusion\n\n- one\n- two")
	if err != nil {
		t.Fatalf("MarkdownToHTML failed: %v", err)
	}
	if !strings.Contains(html, "<h2>Conclusion</h2>") {
		t.Errorf("Expected h2 heading, got %s", html)
	}
	if !strings.Contains(html, "<li>one</li>") {
		t.Errorf("Expected list items, got %s", html)
	}
}
