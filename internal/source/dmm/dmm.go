// Package dmm scrapes the DMM catalogue, which is keyed by content id
// ("ssis00123") rather than display id.
package dmm

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vmunix/codarr/internal/source"
	"github.com/vmunix/codarr/pkg/ident"
)

const (
	Name            = "dmm"
	DefaultBaseURL  = "https://www.dmm.co.jp"
	DefaultPriority = 10
)

var cidRe = regexp.MustCompile(`cid=([a-z0-9_]+)`)

// Config configures the adapter.
type Config struct {
	BaseURL  string
	Priority int
	Cookies  map[string]string
}

type Adapter struct {
	client   *source.Client
	baseURL  string
	priority int
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
	cookies := map[string]string{"age_check_done": "1"}
	for k, v := range cfg.Cookies {
		cookies[k] = v
	}
	opts = append(opts, source.WithClientCookies(cookies))
	return &Adapter{
		client:   source.NewClient(Name, opts...),
		baseURL:  base,
		priority: prio,
	}
}

func (a *Adapter) Name() string                       { return Name }
func (a *Adapter) Priority() int                      { return a.priority }
func (a *Adapter) PreferredIDFormat() source.IDFormat { return source.FormatContent }
func (a *Adapter) Hosts() []string                    { return []string{"dmm.co.jp", "dmm.com"} }

// Query searches for the content id and parses the first physical release,
// falling back to the digital one.
func (a *Adapter) Query(ctx context.Context, cid string) (*source.Record, error) {
	searchURL := a.baseURL + "/search/=/searchstr=" + url.PathEscape(strings.ToLower(cid)) + "/"
	page, err := a.client.Get(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	if regionBlocked(page) {
		return nil, source.NewError(source.KindProtectionChallenge, Name, "region restricted")
	}

	detailURL, err := FindDetailURL(page, a.baseURL, cid)
	if err != nil {
		return nil, err
	}

	detail, err := a.client.Get(ctx, detailURL)
	if err != nil {
		return nil, err
	}
	if regionBlocked(detail) {
		return nil, source.NewError(source.KindProtectionChallenge, Name, "region restricted")
	}
	return Parse(detail, detailURL)
}

// FindDetailURL returns the detail link for cid from a search page, preferring
// the DVD listing over the digital one.
func FindDetailURL(page *source.Page, baseURL, cid string) (string, error) {
	doc, err := page.Document()
	if err != nil {
		return "", &source.QueryError{Kind: source.KindNetwork, Source: Name, Detail: "parse html", Err: err}
	}

	cid = strings.ToLower(cid)
	for _, sel := range []string{"a[href*='/mono/dvd/-/detail/']", "a[href*='/digital/videoa/-/detail/']"} {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			if got := CIDFromURL(href); got == cid || strings.HasSuffix(got, cid) {
				found = href
				return false
			}
			return true
		})
		if found != "" {
			return source.ResolveURL(baseURL+"/", found), nil
		}
	}
	return "", source.NewError(source.KindNotFound, Name, "no product page for "+cid)
}

// Parse extracts a record from a product page.
func Parse(page *source.Page, pageURL string) (*source.Record, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, &source.QueryError{Kind: source.KindNetwork, Source: Name, Detail: "parse html", Err: err}
	}

	rec := &source.Record{
		Source:  Name,
		Website: pageURL,
		Title:   source.NormSpace(doc.Find("h1#title").First().Text()),
	}
	if cid := CIDFromURL(pageURL); cid != "" {
		rec.ID = ident.ToDisplayID(strings.TrimLeft(cid, "0123456789"))
		rec.Extra = map[string]string{"content_id": cid}
	}

	info := infoTable(doc)
	rec.Release = source.NormDate(first(info, "発売日", "配信開始日", "商品発売日"))
	rec.Runtime = source.FirstInt(info["収録時間"])
	rec.Director = dash(info["監督"])
	rec.Studio = dash(info["メーカー"])
	rec.Label = dash(info["レーベル"])
	rec.Series = dash(info["シリーズ"])

	var actors, tags []string
	doc.Find("span#performer a").Each(func(_ int, s *goquery.Selection) {
		actors = append(actors, s.Text())
	})
	doc.Find("table.mg-b20 a[href*='/genre/'], table.mg-b20 a[href*='article=keyword']").Each(func(_ int, s *goquery.Selection) {
		tags = append(tags, s.Text())
	})
	rec.Actors = source.NormList(actors)
	rec.Tags = source.NormList(tags)

	for _, sel := range []string{"#sample-video a[name='package-image']", "div.img a"} {
		if href, ok := doc.Find(sel).First().Attr("href"); ok {
			rec.Cover = source.ResolveURL(pageURL, href)
			break
		}
	}
	for _, sel := range []string{"#sample-video img", "div.img img"} {
		if src, ok := doc.Find(sel).First().Attr("src"); ok {
			rec.Thumb = source.ResolveURL(pageURL, src)
			break
		}
	}
	if rec.Cover == "" {
		rec.Cover = rec.Thumb
	}

	rec.Outline = source.NormSpace(doc.Find("div.mg-b20.lh4 p.mg-b20").First().Text())
	if rec.Outline == "" {
		rec.Outline = source.NormSpace(doc.Find("div.mg-b20.lh4").First().Text())
	}

	if rec.Title == "" || rec.ID == "" {
		return nil, source.NewError(source.KindNotFound, Name, "not a product page")
	}
	return rec, nil
}

// CIDFromURL extracts the content id from a product URL.
func CIDFromURL(u string) string {
	if m := cidRe.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return ""
}

func infoTable(doc *goquery.Document) map[string]string {
	info := map[string]string{}
	doc.Find("table.mg-b20 tr").Each(func(_ int, row *goquery.Selection) {
		label := source.NormLabel(row.Find("td.nw").First().Text())
		value := source.NormSpace(row.Find("td").Not(".nw").First().Text())
		if label != "" && value != "" {
			info[label] = value
		}
	})
	return info
}

func first(info map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := info[k]; v != "" {
			return v
		}
	}
	return ""
}

// dash treats DMM's "----" placeholder as empty.
func dash(v string) string {
	if strings.Trim(v, "-") == "" {
		return ""
	}
	return v
}

func regionBlocked(p *source.Page) bool {
	return strings.Contains(p.URL, "not-available-in-your-region")
}
