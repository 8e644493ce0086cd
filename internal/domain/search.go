package domain

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0

	// Position bonus (earlier is better)
	ScorePositionBonus = 10.0

	// Tag matches count for less than name matches
	ScoreTagWeight = 0.6

	// Pinned tools float up among equal matches
	ScorePinnedBonus = 5.0
)

// ToolMatch is a tool together with its match score.
type ToolMatch struct {
	Tool  Tool
	Score float64
}

// ScoreTool scores a tool name and tags against a free-text query.
// A zero score means no match.
func ScoreTool(query string, tool Tool) float64 {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return 0.0
	}

	score := scoreText(query, strings.ToLower(tool.Name))

	for _, tag := range tool.Tags {
		if s := scoreText(query, strings.ToLower(tag)) * ScoreTagWeight; s > score {
			score = s
		}
	}

	if score > 0 && tool.IsPinned {
		score += ScorePinnedBonus
	}
	return score
}

func scoreText(query, text string) float64 {
	if text == "" {
		return 0.0
	}

	if query == text {
		return ScoreExactMatch
	}

	if strings.HasPrefix(text, query) {
		return ScorePrefixMatch
	}

	if idx := strings.Index(text, query); idx >= 0 {
		// Earlier substring matches get higher score
		return ScoreSubstringMatch + ScorePositionBonus*(1.0-float64(idx)/float64(len(text)))
	}

	// Every query word appears somewhere in the text
	words := strings.Fields(query)
	if len(words) > 1 {
		all := true
		for _, w := range words {
			if !strings.Contains(text, w) {
				all = false
				break
			}
		}
		if all {
			return ScoreFuzzyMatch
		}
	}

	if similarity := charSimilarity(normalizeWord(query), normalizeWord(text)); similarity > 0.5 {
		return ScoreFuzzyMatch * similarity
	}
	return 0.0
}

// charSimilarity is the share of characters of s1 that appear in s2.
func charSimilarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}
	matches := 0
	for _, c := range s1 {
		if strings.ContainsRune(s2, c) {
			matches++
		}
	}
	return float64(matches) / float64(len([]rune(s1)))
}

func normalizeWord(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

// RankTools returns the tools matching query, best first.
// Ties keep the input order, so callers can pass tools in display order.
func RankTools(query string, tools []Tool) []ToolMatch {
	matches := make([]ToolMatch, 0, len(tools))
	for _, t := range tools {
		if s := ScoreTool(query, t); s > 0 {
			matches = append(matches, ToolMatch{Tool: t, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
