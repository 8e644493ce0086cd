package domain

import "testing"

func TestScoreTool(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		tool           Tool
		expectPositive bool
	}{
		{
			name:           "exact match",
			query:          "chatgpt",
			tool:           Tool{Name: "ChatGPT"},
			expectPositive: true,
		},
		{
			name:           "prefix match",
			query:          "chat",
			tool:           Tool{Name: "ChatGPT"},
			expectPositive: true,
		},
		{
			name:           "substring match",
			query:          "gpt",
			tool:           Tool{Name: "ChatGPT"},
			expectPositive: true,
		},
		{
			name:           "tag match",
			query:          "self-hosted",
			tool:           Tool{Name: "Ollama", Tags: []string{"Self-Hosted", "LLM"}},
			expectPositive: true,
		},
		{
			name:           "no match",
			query:          "xyz",
			tool:           Tool{Name: "ChatGPT"},
			expectPositive: false,
		},
		{
			name:           "empty query",
			query:          "  ",
			tool:           Tool{Name: "ChatGPT"},
			expectPositive: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ScoreTool(tt.query, tt.tool)
			if tt.expectPositive && score <= 0 {
				t.Errorf("Expected positive score, got %f", score)
			}
			if !tt.expectPositive && score > 0 {
				t.Errorf("Expected zero score, got %f", score)
			}
		})
	}
}

func TestRankToolsPrefersNameOverTag(t *testing.T) {
	tools := []Tool{
		{ID: "t1", Name: "Cursor", Tags: []string{"Coding"}},
		{ID: "t2", Name: "Coding Buddy"},
		{ID: "t3", Name: "Suno", Tags: []string{"Audio"}},
	}

	matches := RankTools("coding", tools)
	if len(matches) != 2 {
		t.Fatalf("RankTools() returned %d matches, want 2", len(matches))
	}
	if matches[0].Tool.ID != "t2" {
		t.Errorf("top match = %s, want t2 (name prefix beats tag)", matches[0].Tool.ID)
	}
}

func TestRankToolsStableForTies(t *testing.T) {
	tools := []Tool{
		{ID: "a", Name: "Notion"},
		{ID: "b", Name: "Notion"},
	}
	matches := RankTools("notion", tools)
	if len(matches) != 2 || matches[0].Tool.ID != "a" || matches[1].Tool.ID != "b" {
		t.Errorf("RankTools() did not keep input order for ties: %+v", matches)
	}
}
