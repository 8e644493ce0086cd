// Package classify maps a URL onto a coarse content kind using only its
// hostname and path. Everything here is pure: no I/O, no state.
package classify

import (
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
)

var videoHosts = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"twitch.tv",
	"dailymotion.com",
	"loom.com",
	"wistia.com",
	"tiktok.com",
}

var podcastHosts = []string{
	"podcasts.apple.com",
	"open.spotify.com",
	"anchor.fm",
	"podbean.com",
	"buzzsprout.com",
	"simplecast.com",
	"transistor.fm",
	"overcast.fm",
	"pocketcasts.com",
	"castbox.fm",
}

var articleHosts = []string{
	"medium.com",
	"substack.com",
	"dev.to",
	"hashnode.dev",
	"hashnode.com",
	"towardsdatascience.com",
	"hackernoon.com",
	"wordpress.com",
	"blogspot.com",
	"ghost.io",
	"mirror.xyz",
}

var articlePathMarkers = []string{
	"/blog/",
	"/blogs/",
	"/article/",
	"/articles/",
	"/post/",
	"/posts/",
}

// Classify returns the content kind suggested by the URL structure.
// The first matching rule wins: video hosts, podcast hosts, article
// platforms and paths, then tool as the default.
func Classify(u *url.URL) domain.ContentKind {
	if u == nil {
		return domain.KindTool
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.ToLower(u.EscapedPath())

	switch {
	case matchHost(host, videoHosts):
		return domain.KindVideo
	case matchHost(host, podcastHosts):
		return domain.KindPodcast
	case matchHost(host, articleHosts), isArticlePath(path), strings.HasPrefix(host, "blog."):
		return domain.KindArticle
	}
	return domain.KindTool
}

// ClassifyString parses raw and classifies it. Unparseable input is a tool.
func ClassifyString(raw string) domain.ContentKind {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return domain.KindTool
	}
	return Classify(u)
}

// Merge combines the URL-based kind with the extractor's proposal.
// Domain structure wins for video, podcast and article; inside the
// "tool" space the extractor decides, as long as it proposed a valid kind.
func Merge(urlKind, proposed domain.ContentKind) domain.ContentKind {
	if urlKind != domain.KindTool {
		return urlKind
	}
	if proposed.Valid() {
		return proposed
	}
	return domain.KindTool
}

// matchHost reports whether host equals one of the entries or is a subdomain of one.
func matchHost(host string, hosts []string) bool {
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func isArticlePath(path string) bool {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	for _, marker := range articlePathMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}
