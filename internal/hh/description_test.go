package hh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		contains []string
		absent   []string
	}{
		{
			name:     "list items become bullets",
			html:     "<ul><li>договоры</li><li>суды</li></ul>",
			contains: []string{"• договоры", "\n   • суды"},
			absent:   []string{"<li>", "<ul>"},
		},
		{
			name:     "paragraphs and breaks become newlines",
			html:     "<p>Первый</p><p>Второй<br/>Третий</p>",
			contains: []string{"Первый\nВторой\nТретий"},
		},
		{
			name:     "headings start a new block",
			html:     "<p>Обязанности: договоры.</p><p><strong>Требования:</strong> опыт</p>",
			contains: []string{"\n\nТребования: опыт"},
			absent:   []string{"<strong>"},
		},
		{
			name:     "entities are decoded",
			html:     "<p>ООО &quot;Ромашка&quot;</p>",
			contains: []string{`ООО "Ромашка"`},
			absent:   []string{"&quot;"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanDescription(tt.html)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestCleanDescription_Empty(t *testing.T) {
	got, err := CleanDescription("  ")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
