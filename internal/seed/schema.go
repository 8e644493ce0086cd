package seed

// File is the native seed format.
//
//	categories:
//	  - name: Coding
//	    tools:
//	      - name: Cursor
//	        url: https://cursor.com
//	        type: CODE_ASSISTANT
//	collections:
//	  - name: Favorites
//	    tools: [Cursor]
type File struct {
	Categories  []CategorySeed   `yaml:"categories"`
	Collections []CollectionSeed `yaml:"collections"`
}

type CategorySeed struct {
	Name      string     `yaml:"name"`
	SortOrder int        `yaml:"sortOrder"`
	Collapsed bool       `yaml:"collapsed"`
	Tools     []ToolSeed `yaml:"tools"`
}

type ToolSeed struct {
	Name         string   `yaml:"name"`
	URL          string   `yaml:"url"`
	Type         string   `yaml:"type"`
	Summary      string   `yaml:"summary"`
	WhatItIs     string   `yaml:"whatItIs"`
	Capabilities []string `yaml:"capabilities"`
	BestFor      []string `yaml:"bestFor"`
	Tags         []string `yaml:"tags"`
	Status       string   `yaml:"status"`      // empty => active
	ContentType  string   `yaml:"contentType"` // empty => classified from the URL
	Pinned       bool     `yaml:"pinned"`
	Notes        string   `yaml:"notes"`
}

// CollectionSeed references tools by name or URL.
type CollectionSeed struct {
	Name  string   `yaml:"name"`
	Tools []string `yaml:"tools"`
}

// homepageConfig covers both Homepage dashboard files. In services.yaml each
// entry maps to a property map; in bookmarks.yaml it maps to a one-element
// list of property maps.
type homepageConfig []map[string][]map[string]homepageEntry

type homepageProps struct {
	Href        string `yaml:"href"`
	Description string `yaml:"description"`
	Abbr        string `yaml:"abbr"`
}

type homepageEntry struct {
	homepageProps
}
