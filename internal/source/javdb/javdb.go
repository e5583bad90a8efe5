// Package javdb scrapes JavDB, which needs a search step before the detail
// page and may require a logged-in session cookie.
package javdb

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vmunix/codarr/internal/source"
)

const (
	Name            = "javdb"
	DefaultBaseURL  = "https://javdb.com"
	DefaultPriority = 30
	SessionCookie   = "_jdb_session"
)

// Config configures the adapter.
type Config struct {
	BaseURL  string
	Priority int
	Cookies  map[string]string
	// RequireLogin fails fast with AuthRequired when SessionCookie is not configured.
	RequireLogin bool
	Locale       string
}

type Adapter struct {
	client       *source.Client
	baseURL      string
	priority     int
	cookies      map[string]string
	requireLogin bool
	locale       string
}

func New(cfg Config, opts ...source.ClientOption) *Adapter {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	prio := cfg.Priority
	if prio == 0 {
		prio = DefaultPriority
	}
	cookies := map[string]string{"over18": "1"}
	for k, v := range cfg.Cookies {
		cookies[k] = v
	}
	locale := cfg.Locale
	if locale == "" {
		locale = "zh"
	}
	opts = append(opts, source.WithClientCookies(cookies))
	return &Adapter{
		client:       source.NewClient(Name, opts...),
		baseURL:      base,
		priority:     prio,
		cookies:      cookies,
		requireLogin: cfg.RequireLogin,
		locale:       locale,
	}
}

func (a *Adapter) Name() string                       { return Name }
func (a *Adapter) Priority() int                      { return a.priority }
func (a *Adapter) PreferredIDFormat() source.IDFormat { return source.FormatDisplay }
func (a *Adapter) Hosts() []string                    { return []string{"javdb.com"} }

// Query searches for id and parses the matching detail page.
func (a *Adapter) Query(ctx context.Context, id string) (*source.Record, error) {
	if a.requireLogin {
		if err := source.RequireCookie(Name, SessionCookie, a.cookies); err != nil {
			return nil, err
		}
	}

	searchURL := a.baseURL + "/search?q=" + url.QueryEscape(id) + "&f=all"
	page, err := a.client.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	if isLoginPage(page) {
		return nil, source.NewError(source.KindAuthRequired, Name, "search redirected to login")
	}

	href, err := FindDetailHref(page, id)
	if err != nil {
		return nil, err
	}

	detailURL := source.ResolveURL(a.baseURL+"/", href)
	if a.locale != "" {
		detailURL += "?locale=" + url.QueryEscape(a.locale)
	}
	detail, err := a.client.Get(ctx, detailURL)
	if err != nil {
		return nil, err
	}
	if isLoginPage(detail) {
		return nil, source.NewError(source.KindAuthRequired, Name, "detail page requires login")
	}
	return Parse(detail, detailURL)
}

// FindDetailHref picks the search result whose code matches id.
func FindDetailHref(page *source.Page, id string) (string, error) {
	doc, err := page.Document()
	if err != nil {
		return "", &source.QueryError{Kind: source.KindNetwork, Source: Name, Detail: "parse html", Err: err}
	}

	var (
		codes []string
		hrefs []string
	)
	doc.Find("div.movie-list div.item a.box").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		code := strings.TrimSpace(s.Find("div.video-title strong").First().Text())
		if code == "" {
			code = strings.TrimSpace(s.Find("div.uid").First().Text())
		}
		codes = append(codes, code)
		hrefs = append(hrefs, href)
	})
	if len(codes) == 0 {
		return "", source.NewError(source.KindNotFound, Name, "no search results")
	}

	m := source.MatchCode(id, codes)
	if m.Index < 0 {
		return "", source.NewError(source.KindNotFound, Name, "no search result matches "+id)
	}
	return hrefs[m.Index], nil
}

// Parse extracts a record from a detail page. The original title is preferred
// over the translated one.
func Parse(page *source.Page, pageURL string) (*source.Record, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, &source.QueryError{Kind: source.KindNetwork, Source: Name, Detail: "parse html", Err: err}
	}

	rec := &source.Record{Source: Name, Website: pageURL}

	current := source.NormSpace(doc.Find("h2.title strong.current-title").First().Text())
	origin := source.NormSpace(doc.Find("h2.title span.origin-title").First().Text())
	rec.Title = origin
	if rec.Title == "" {
		rec.Title = current
	}
	if origin != "" && current != "" && current != origin {
		rec.OriginalTitle = origin
		rec.Extra = map[string]string{"translated_title": current}
	}

	var actors, tags []string
	doc.Find("nav.movie-panel-info .panel-block").Each(func(_ int, s *goquery.Selection) {
		value := s.Find("span.value")
		switch source.NormLabel(s.Find("strong").First().Text()) {
		case "番號", "番号", "ID":
			rec.ID = source.NormSpace(value.Text())
		case "日期", "Released Date", "Date":
			rec.Release = source.NormDate(value.Text())
		case "時長", "时长", "Duration":
			rec.Runtime = source.FirstInt(value.Text())
		case "導演", "导演", "Director":
			rec.Director = source.NormSpace(value.Find("a").First().Text())
		case "片商", "Maker":
			rec.Studio = source.NormSpace(value.Find("a").First().Text())
		case "發行", "发行", "Publisher":
			rec.Label = source.NormSpace(value.Find("a").First().Text())
		case "系列", "Series":
			rec.Series = source.NormSpace(value.Find("a").First().Text())
		case "演員", "演员", "Actor(s)", "Actors":
			value.Find("a").Each(func(_ int, a *goquery.Selection) {
				actors = append(actors, a.Text())
			})
		case "類別", "类别", "Tags":
			value.Find("a").Each(func(_ int, a *goquery.Selection) {
				tags = append(tags, a.Text())
			})
		}
	})
	rec.Actors = source.NormList(actors)
	rec.Tags = source.NormList(tags)

	if src, ok := doc.Find(".column-video-cover img.video-cover").First().Attr("src"); ok {
		rec.Cover = source.ResolveURL(pageURL, src)
	}
	if rec.Cover == "" {
		if href, ok := doc.Find(".column-video-cover a[data-fancybox='gallery']").First().Attr("href"); ok {
			rec.Cover = source.ResolveURL(pageURL, href)
		}
	}

	if rec.ID == "" || rec.Title == "" {
		return nil, source.NewError(source.KindNotFound, Name, "not a detail page")
	}
	return rec, nil
}

func isLoginPage(p *source.Page) bool {
	return strings.Contains(p.URL, "/login") || strings.Contains(p.Location, "/login")
}
