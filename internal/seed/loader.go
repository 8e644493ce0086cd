// Package seed bootstraps an empty catalog from a YAML file.
package seed

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/toolshelf/internal/classify"
	"github.com/MrSnakeDoc/toolshelf/internal/domain"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads a seed file. Both the native format and Homepage
// services.yaml / bookmarks.yaml files are accepted.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the file.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document. A top-level sequence is read as a Homepage
// dashboard file, a mapping as the native format.
func Parse(data []byte) (File, error) {
	// Homepage template variables ({{HOMEPAGE_VAR_...}}) are not resolvable here.
	data = templateVar.ReplaceAll(data, []byte(`""`))

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return File{}, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return File{}, nil
	}

	switch root.Content[0].Kind {
	case yaml.SequenceNode:
		var hp homepageConfig
		if err := root.Decode(&hp); err != nil {
			return File{}, fmt.Errorf("failed to parse homepage yaml: %w", err)
		}
		return fromHomepage(hp), nil
	case yaml.MappingNode:
		var f File
		if err := root.Decode(&f); err != nil {
			return File{}, fmt.Errorf("failed to parse seed yaml: %w", err)
		}
		return f, nil
	default:
		return File{}, fmt.Errorf("seed yaml must be a mapping or a sequence")
	}
}

// UnmarshalYAML accepts either a property map or a list whose first element
// is one.
func (e *homepageEntry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	return n.Decode(&e.homepageProps)
}

// fromHomepage turns dashboard groups into categories. Entries without an
// absolute href are skipped.
func fromHomepage(hp homepageConfig) File {
	var f File
	for _, group := range hp {
		for groupName, entries := range group {
			cat := CategorySeed{Name: groupName, SortOrder: len(f.Categories)}
			for _, entry := range entries {
				for name, e := range entry {
					href := strings.TrimSpace(e.Href)
					if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
						continue
					}
					cat.Tools = append(cat.Tools, ToolSeed{
						Name:        name,
						URL:         href,
						Type:        domain.ToolTypeOther,
						Summary:     strings.TrimSpace(e.Description),
						ContentType: string(classify.ClassifyString(href)),
						Notes:       e.Abbr,
					})
				}
			}
			f.Categories = append(f.Categories, cat)
		}
	}
	return f
}
