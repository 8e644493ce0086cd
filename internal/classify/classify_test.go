package classify

import (
	"testing"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want domain.ContentKind
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=abc", domain.KindVideo},
		{"youtube short link", "https://youtu.be/abc", domain.KindVideo},
		{"vimeo", "https://vimeo.com/12345", domain.KindVideo},
		{"mobile youtube subdomain", "https://m.youtube.com/watch?v=abc", domain.KindVideo},
		{"apple podcasts", "https://podcasts.apple.com/us/podcast/x/id1", domain.KindPodcast},
		{"spotify show", "https://open.spotify.com/show/abc", domain.KindPodcast},
		{"blog path", "https://example.com/blog/my-post", domain.KindArticle},
		{"posts path", "https://example.com/posts/2024/hello", domain.KindArticle},
		{"article path at end", "https://example.com/article", domain.KindArticle},
		{"blog subdomain", "https://blog.example.com/", domain.KindArticle},
		{"medium", "https://medium.com/@someone/story-123", domain.KindArticle},
		{"substack subdomain", "https://writer.substack.com/p/hello", domain.KindArticle},
		{"plain product", "https://cursor.com", domain.KindTool},
		{"product with path", "https://github.com/ollama/ollama", domain.KindTool},
		{"blogger word in path segment", "https://example.com/blogging-tools", domain.KindTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyString(tt.url); got != tt.want {
				t.Errorf("ClassifyString(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	urls := []string{
		"https://www.youtube.com/watch?v=abc",
		"https://example.com/blog/my-post",
		"https://anchor.fm/show",
		"https://cursor.com",
		"not a url at all",
	}
	for _, u := range urls {
		first := ClassifyString(u)
		for i := 0; i < 10; i++ {
			if got := ClassifyString(u); got != first {
				t.Fatalf("ClassifyString(%q) changed between calls: %v then %v", u, first, got)
			}
		}
	}
}

func TestClassifyNil(t *testing.T) {
	if got := Classify(nil); got != domain.KindTool {
		t.Errorf("Classify(nil) = %v, want tool", got)
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		urlKind  domain.ContentKind
		proposed domain.ContentKind
		want     domain.ContentKind
	}{
		{"url video beats extractor tool", domain.KindVideo, domain.KindTool, domain.KindVideo},
		{"url article beats extractor website", domain.KindArticle, domain.KindWebsite, domain.KindArticle},
		{"extractor decides inside tool space", domain.KindTool, domain.KindWebsite, domain.KindWebsite},
		{"extractor agrees", domain.KindTool, domain.KindTool, domain.KindTool},
		{"invalid proposal falls back", domain.KindTool, "gadget", domain.KindTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Merge(tt.urlKind, tt.proposed); got != tt.want {
				t.Errorf("Merge(%v, %v) = %v, want %v", tt.urlKind, tt.proposed, got, tt.want)
			}
		})
	}
}
