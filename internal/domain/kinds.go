package domain

import "strings"

// Status is informational only; any value may move to any other value.
type Status string

const (
	StatusActive     Status = "active"
	StatusBeta       Status = "beta"
	StatusDeprecated Status = "deprecated"
	StatusInactive   Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusBeta, StatusDeprecated, StatusInactive:
		return true
	}
	return false
}

// ParseStatus maps free text onto a Status, case-insensitively.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// ContentKind is the coarse kind of content a link points to.
type ContentKind string

const (
	KindTool    ContentKind = "tool"
	KindWebsite ContentKind = "website"
	KindVideo   ContentKind = "video"
	KindPodcast ContentKind = "podcast"
	KindArticle ContentKind = "article"
)

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	switch k {
	case KindTool, KindWebsite, KindVideo, KindPodcast, KindArticle:
		return true
	}
	return false
}

// ParseContentKind maps free text onto a ContentKind, case-insensitively.
func ParseContentKind(raw string) (ContentKind, bool) {
	k := ContentKind(strings.ToLower(strings.TrimSpace(raw)))
	return k, k.Valid()
}

// ToolTypeOther is used when a proposed type is outside ToolTypes.
const ToolTypeOther = "OTHER"

// ToolTypes is the closed set of tool kinds offered to the extractor.
var ToolTypes = []string{
	"CHATBOT",
	"AGENT",
	"CODE_ASSISTANT",
	"IMAGE_GENERATION",
	"VIDEO_GENERATION",
	"AUDIO",
	"WRITING",
	"RESEARCH",
	"PRODUCTIVITY",
	"DESIGN",
	"DATA_ANALYSIS",
	"API",
	"LIBRARY",
	"FRAMEWORK",
	"PLATFORM",
	"CLI",
	"EXTENSION",
	"MODEL",
	"DATASET",
	"LEARNING",
	ToolTypeOther,
}

// NormalizeToolType upper-cases raw and maps it onto ToolTypes.
// Spaces and dashes become underscores. Unknown values map to ToolTypeOther.
func NormalizeToolType(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	t = strings.NewReplacer(" ", "_", "-", "_").Replace(t)
	for _, known := range ToolTypes {
		if t == known {
			return known
		}
	}
	return ToolTypeOther
}

// TagVocabulary is the controlled vocabulary the extractor draws tags from.
var TagVocabulary = []string{
	"AI", "LLM", "Open Source", "Free", "Freemium", "Paid", "Self-Hosted", "API",
	"Coding", "Writing", "Research", "Image", "Video", "Audio", "Voice", "Design",
	"Productivity", "Automation", "Agents", "Data", "Analytics", "Search", "Education",
	"Marketing", "DevOps", "Security", "Mobile", "Browser Extension", "CLI", "No-Code",
	"Collaboration", "Documentation", "Testing", "Database", "Cloud", "Local",
}
