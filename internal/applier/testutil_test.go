package applier

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmunix/codarr/internal/source"
	"github.com/vmunix/codarr/pkg/ident"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testID(part int, subtitle bool) *ident.ParsedIdentifier {
	return &ident.ParsedIdentifier{
		DisplayID:  "ABP-001",
		ContentID:  "abp00001",
		Part:       part,
		Family:     "standard",
		Attributes: ident.Attributes{Subtitle: subtitle},
	}
}

func testRecord() *source.Record {
	return &source.Record{
		Source:  "javbus",
		ID:      "ABP-001",
		Title:   "Sample Title",
		Studio:  "Prestige",
		Release: "2013-05-10",
		Actors:  []string{"Aoi", "Rin"},
	}
}

func newApplier(t *testing.T, opts Options) *Applier {
	t.Helper()
	a, err := New(opts, testLogger())
	require.NoError(t, err)
	return a
}
