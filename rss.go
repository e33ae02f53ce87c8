package folio

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/content"
)

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// postFeed builds the RSS document for posts, which arrive newest first.
func (a *App) postFeed(posts []content.BlogPost) rssFeed {
	ch := rssChannel{
		Title:       a.Config.Name,
		Link:        BuildURL(a.Config.URL),
		Description: a.Config.Description,
		Items:       make([]rssItem, 0, len(posts)),
	}
	if len(posts) > 0 {
		ch.LastBuildDate = posts[0].CreatedAt.UTC().Format(time.RFC1123Z)
	}
	for _, p := range posts {
		link := BuildURL(a.Config.URL, "blog", p.Slug)
		ch.Items = append(ch.Items, rssItem{
			Title:       p.Title,
			Link:        link,
			Description: p.Excerpt,
			PubDate:     p.CreatedAt.UTC().Format(time.RFC1123Z),
			GUID:        rssGUID{IsPermaLink: true, Value: link},
		})
	}
	return rssFeed{Version: "2.0", Channel: ch}
}

// writeXML encodes v as an XML document with the given content type.
func writeXML(c echo.Context, contentType string, v any) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(v)
}
