package javbus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/codarr/internal/source"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func newTestAdapter(t *testing.T, h http.HandlerFunc) *Adapter {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL}, source.WithHTTPClient(server.Client()), source.WithRetries(0, 0))
}

func TestAdapter_Query(t *testing.T) {
	body := fixture(t, "ABP-001.html")
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ABP-001", r.URL.Path)
		_, _ = w.Write(body)
	})

	rec, err := a.Query(context.Background(), "abp-001")
	require.NoError(t, err)

	assert.Equal(t, "javbus", rec.Source)
	assert.Equal(t, "ABP-001", rec.ID)
	assert.Equal(t, "Sample Title", rec.Title)
	assert.Equal(t, "2013-05-01", rec.Release)
	assert.Equal(t, 120, rec.Runtime)
	assert.Equal(t, "Director One", rec.Director)
	assert.Equal(t, "Prestige", rec.Studio)
	assert.Equal(t, "ABSOLUTELY PERFECT", rec.Label)
	assert.Equal(t, "Sample Series", rec.Series)
	assert.Equal(t, []string{"Actor A", "Actor B"}, rec.Actors)
	assert.Equal(t, []string{"Drama", "Solo"}, rec.Tags)
	assert.Contains(t, rec.Cover, "/pics/cover/1abc_b.jpg")
	assert.Contains(t, rec.Thumb, "/pics/thumb/1abc.jpg")
	assert.True(t, rec.Valid())
}

func TestAdapter_Query_RedirectWithDetailBody(t *testing.T) {
	body := fixture(t, "ABP-001.html")
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/doc/driver-verify?referer=/ABP-001")
		w.WriteHeader(http.StatusFound)
		_, _ = w.Write(body)
	})

	rec, err := a.Query(context.Background(), "ABP-001")
	require.NoError(t, err)
	assert.Equal(t, "Sample Title", rec.Title)
}

func TestAdapter_Query_AgeGate(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/doc/driver-verify?referer=/ABP-001")
		w.WriteHeader(http.StatusFound)
		_, _ = w.Write([]byte(`<div id="ageVerify"></div>`))
	})

	_, err := a.Query(context.Background(), "ABP-001")
	assert.ErrorIs(t, err, source.ErrProtectionChallenge)
}

func TestAdapter_Query_NotFound(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := a.Query(context.Background(), "ZZZ-999")
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestParse_MismatchedID(t *testing.T) {
	page := &source.Page{Body: fixture(t, "ABP-001.html")}
	_, err := Parse("ABP-002", page, "https://www.javbus.com/ABP-002")
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestParse_NotDetailPage(t *testing.T) {
	page := &source.Page{Body: []byte("<html><body>search results</body></html>")}
	_, err := Parse("ABP-001", page, "https://www.javbus.com/ABP-001")
	assert.ErrorIs(t, err, source.ErrNotFound)
}
