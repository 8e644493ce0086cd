// Package scrape turns fetched markup into the normalized content the
// extractor reasons about.
package scrape

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/fetch"
)

const (
	// MaxKeywords bounds the keyword list forwarded to the extractor.
	MaxKeywords = 10
	// DefaultBodyBudget is the rune budget of the body excerpt.
	DefaultBodyBudget = 2000
)

// chrome never carries page content.
var chrome = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Aside:    true,
	atom.Form:     true,
}

// Scraper extracts content with a fixed body budget.
type Scraper struct {
	bodyBudget int
}

// New returns a Scraper. budget <= 0 selects DefaultBodyBudget.
func New(budget int) *Scraper {
	if budget <= 0 {
		budget = DefaultBodyBudget
	}
	return &Scraper{bodyBudget: budget}
}

// Scrape parses page and returns its normalized content. Markup the parser
// cannot make sense of yields empty content, never an error: html.Parse
// recovers from anything short of a read failure.
func (s *Scraper) Scrape(page *fetch.RawPage) domain.ScrapedContent {
	out := domain.ScrapedContent{Keywords: []string{}}
	if page == nil {
		return out
	}
	out.URL = page.URL

	doc, err := html.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return out
	}

	meta := collectMeta(doc)
	out.Title = firstNonEmpty(meta["og:title"], meta["twitter:title"], documentTitle(doc))
	out.Description = firstNonEmpty(meta["og:description"], meta["twitter:description"], meta["description"])

	if img := firstNonEmpty(meta["og:image"], meta["twitter:image"], meta["twitter:image:src"]); img != "" {
		resolved := resolve(page.URL, img)
		out.OGImage = &resolved
	}
	out.Keywords = splitKeywords(meta["keywords"])

	prune(doc)
	if container := contentContainer(doc); container != nil {
		out.BodyText = truncate(collapse(textOf(container)), s.bodyBudget)
	}
	return out
}

// Scrape runs a default Scraper.
func Scrape(page *fetch.RawPage) domain.ScrapedContent {
	return New(0).Scrape(page)
}

// collectMeta indexes <meta> tags by lower-cased property or name. The first
// non-empty occurrence of a key wins.
func collectMeta(doc *html.Node) map[string]string {
	meta := make(map[string]string)
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Meta {
			return true
		}
		key := strings.ToLower(strings.TrimSpace(firstNonEmpty(attr(n, "property"), attr(n, "name"))))
		val := strings.TrimSpace(attr(n, "content"))
		if key != "" && val != "" {
			if _, ok := meta[key]; !ok {
				meta[key] = val
			}
		}
		return true
	})
	return meta
}

func documentTitle(doc *html.Node) string {
	var title string
	walk(doc, func(n *html.Node) bool {
		if title != "" {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			title = collapse(textOf(n))
			return false
		}
		// <svg><title> is an accessibility label, not the document title.
		return n.DataAtom != atom.Svg
	})
	return title
}

// prune detaches every chrome subtree from the document.
func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && chrome[c.DataAtom] {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

// contentContainer picks the most content-likely element: main, article,
// a generic content container, then body.
func contentContainer(doc *html.Node) *html.Node {
	matchers := []func(*html.Node) bool{
		func(n *html.Node) bool { return n.DataAtom == atom.Main },
		func(n *html.Node) bool { return n.DataAtom == atom.Article },
		isGenericContainer,
		func(n *html.Node) bool { return n.DataAtom == atom.Body },
	}
	for _, match := range matchers {
		if n := find(doc, match); n != nil {
			return n
		}
	}
	return nil
}

func isGenericContainer(n *html.Node) bool {
	if strings.EqualFold(attr(n, "role"), "main") {
		return true
	}
	switch strings.ToLower(attr(n, "id")) {
	case "content", "main-content", "main":
		return true
	}
	for _, class := range strings.Fields(strings.ToLower(attr(n, "class"))) {
		if class == "content" || class == "main-content" {
			return true
		}
	}
	return false
}

func find(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits n depth-first. Returning false skips the node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteByte(' ')
		}
		return true
	})
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func splitKeywords(raw string) []string {
	out := make([]string, 0, MaxKeywords)
	for _, kw := range strings.Split(raw, ",") {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		out = append(out, kw)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n runes without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
