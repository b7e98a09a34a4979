package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Invoices", "Invoices"},
		{"surrounding whitespace", "\n  Invoices \t", "Invoices"},
		{"bare fence", "```\nReports\n```", "Reports"},
		{"fence with language", "```text\nReports\n```", "Reports"},
		{"inline fence", "```Reports```", "Reports"},
		{"multi line body", "```\nline one\nline two\n```", "line one\nline two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanResponse(tt.in))
		})
	}
}
