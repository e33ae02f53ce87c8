package folio

import (
	"encoding/xml"
	"time"

	"github.com/eringen/folio/content"
)

const sitemapDate = "2006-01-02"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// siteMap lists the home page and every published post. Projects live on the
// home page, so the newest project or post dates it.
func (a *App) siteMap(projects []content.Project, posts []content.BlogPost) urlSet {
	var newest time.Time
	for _, p := range projects {
		if p.CreatedAt.After(newest) {
			newest = p.CreatedAt
		}
	}
	for _, p := range posts {
		if p.CreatedAt.After(newest) {
			newest = p.CreatedAt
		}
	}

	home := sitemapURL{Loc: BuildURL(a.Config.URL), ChangeFreq: "weekly"}
	if !newest.IsZero() {
		home.LastMod = newest.UTC().Format(sitemapDate)
	}
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  []sitemapURL{home},
	}
	for _, p := range posts {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     BuildURL(a.Config.URL, "blog", p.Slug),
			LastMod: p.CreatedAt.UTC().Format(sitemapDate),
		})
	}
	return set
}
