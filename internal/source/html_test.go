package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstInt(t *testing.T) {
	tests := map[string]int{
		"120分":        120,
		" 155 分鐘":     155,
		"length: 90 min": 90,
		"none":         0,
		"":             0,
	}
	for in, want := range tests {
		if got := FirstInt(in); got != want {
			t.Errorf("FirstInt(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://img.example.com/a.jpg", ResolveURL("https://www.javbus.com/ABP-001", "//img.example.com/a.jpg"))
	assert.Equal(t, "https://www.javbus.com/pics/a.jpg", ResolveURL("https://www.javbus.com/ABP-001", "/pics/a.jpg"))
	assert.Equal(t, "http://x/y", ResolveURL("https://www.javbus.com/", "http://x/y"))
	assert.Equal(t, "", ResolveURL("https://www.javbus.com/", "  "))
}

func TestNormHelpers(t *testing.T) {
	assert.Equal(t, "a b", NormSpace("  a \n b "))
	assert.Equal(t, "發行日期", NormLabel("發行日期: "))
	assert.Equal(t, "日期", NormLabel("日期："))
	assert.Equal(t, []string{"x", "y"}, NormList([]string{" x", "", "y", "x"}))
	assert.Equal(t, "2024-01-02", NormDate("2024/01/02"))
}
