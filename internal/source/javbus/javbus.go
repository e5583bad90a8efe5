// Package javbus scrapes detail pages from JavBus.
package javbus

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vmunix/codarr/internal/source"
)

const (
	Name            = "javbus"
	DefaultBaseURL  = "https://www.javbus.com"
	DefaultPriority = 20
)

// Config configures the adapter. Zero values select the defaults.
type Config struct {
	BaseURL  string
	Priority int
	Cookies  map[string]string
}

// Adapter looks up display ids directly at <base>/<ID>; JavBus has no
// separate search step for exact codes.
type Adapter struct {
	client   *source.Client
	baseURL  string
	priority int
}

// New creates the adapter. The client never follows redirects: JavBus answers
// unverified visitors with a 302 to its age gate whose body is usually still the
// full detail page.
func New(cfg Config, opts ...source.ClientOption) *Adapter {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	prio := cfg.Priority
	if prio == 0 {
		prio = DefaultPriority
	}
	opts = append(opts, source.WithClientCookies(cfg.Cookies), source.WithoutRedirects())
	return &Adapter{
		client:   source.NewClient(Name, opts...),
		baseURL:  base,
		priority: prio,
	}
}

func (a *Adapter) Name() string                       { return Name }
func (a *Adapter) Priority() int                      { return a.priority }
func (a *Adapter) PreferredIDFormat() source.IDFormat { return source.FormatDisplay }
func (a *Adapter) Hosts() []string                    { return []string{"javbus.com"} }

// Query fetches and parses the detail page for id.
func (a *Adapter) Query(ctx context.Context, id string) (*source.Record, error) {
	pageURL := a.baseURL + "/" + url.PathEscape(strings.ToUpper(id))
	page, err := a.client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return Parse(id, page, pageURL)
}

// Parse extracts a record from a detail page. A page whose id field is missing
// or different from id is reported as not found.
func Parse(id string, page *source.Page, pageURL string) (*source.Record, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, &source.QueryError{Kind: source.KindNetwork, Source: Name, Detail: "parse html", Err: err}
	}

	got := infoValue(doc, "識別碼", "识别码", "ID")
	if got == "" {
		return nil, source.NewError(source.KindNotFound, Name, "not a detail page")
	}
	if !strings.EqualFold(got, id) {
		return nil, source.NewError(source.KindNotFound, Name, "page is for "+got)
	}

	title := source.NormSpace(doc.Find("h3").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, got))

	rec := &source.Record{
		Source:   Name,
		Website:  pageURL,
		ID:       strings.ToUpper(got),
		Title:    title,
		Release:  source.NormDate(infoValue(doc, "發行日期", "发行日期", "Release Date", "発売日")),
		Runtime:  source.FirstInt(infoValue(doc, "長度", "长度", "Length", "収録時間")),
		Director: infoValue(doc, "導演", "导演", "Director", "監督"),
		Studio:   infoValue(doc, "製作商", "制作商", "Studio", "Maker", "メーカー"),
		Label:    infoValue(doc, "發行商", "发行商", "Label", "レーベル"),
		Series:   infoValue(doc, "系列", "Series", "シリーズ"),
	}

	var actors []string
	doc.Find("div.star-name a").Each(func(_ int, s *goquery.Selection) {
		actors = append(actors, s.Text())
	})
	rec.Actors = source.NormList(actors)

	var tags []string
	doc.Find("span.genre a[href*='/genre/']").Each(func(_ int, s *goquery.Selection) {
		tags = append(tags, s.Text())
	})
	rec.Tags = source.NormList(tags)

	if href, ok := doc.Find("a.bigImage").First().Attr("href"); ok {
		rec.Cover = source.ResolveURL(pageURL, href)
	}
	if src, ok := doc.Find("a.bigImage img").First().Attr("src"); ok && rec.Cover == "" {
		rec.Cover = source.ResolveURL(pageURL, src)
	}
	rec.Thumb = thumbFromCover(rec.Cover)

	return rec, nil
}

// infoValue returns the value of the first info row whose header is one of headers.
func infoValue(doc *goquery.Document, headers ...string) string {
	want := make(map[string]bool, len(headers))
	for _, h := range headers {
		want[source.NormLabel(h)] = true
	}

	var out string
	doc.Find("div.movie div.info p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := source.NormSpace(s.Find("span.header").First().Text())
		if !want[source.NormLabel(raw)] {
			return true
		}
		if a := strings.TrimSpace(s.Find("a").First().Text()); a != "" {
			out = a
			return false
		}
		if v := strings.TrimSpace(s.Find("span").Not(".header").First().Text()); v != "" {
			out = v
			return false
		}
		out = strings.TrimSpace(strings.TrimPrefix(source.NormSpace(s.Text()), raw))
		return false
	})
	return out
}

// thumbFromCover maps /pics/cover/<x>_b.jpg to /pics/thumb/<x>.jpg.
func thumbFromCover(cover string) string {
	if !strings.Contains(cover, "/pics/cover/") || !strings.HasSuffix(cover, "_b.jpg") {
		return ""
	}
	t := strings.Replace(cover, "/pics/cover/", "/pics/thumb/", 1)
	return strings.TrimSuffix(t, "_b.jpg") + ".jpg"
}
