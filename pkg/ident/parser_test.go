package ident

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		display string
		content string
		family  string
	}{
		{"ABC-123.mp4", "ABC-123", "abc00123", "standard"},
		{"XYZ_456.avi", "XYZ-456", "xyz00456", "standard"},
		{"SSIS123.mp4", "SSIS-123", "ssis00123", "standard"},
		{"/media/in/ssis-123.mkv", "SSIS-123", "ssis00123", "standard"},
		{"FHD-ABC-123.mp4", "ABC-123", "abc00123", "standard"},
		{"1080p_XYZ-456.mkv", "XYZ-456", "xyz00456", "standard"},
		{"ABC-123-1080p-x264.mkv", "ABC-123", "abc00123", "standard"},
		{"hhd800.com@ABC-123.mp4", "ABC-123", "abc00123", "standard"},
		{"[ThZu.Cc]ABC-123.mp4", "ABC-123", "abc00123", "standard"},
		{"[2024-01-01] - ABC-123.mp4", "ABC-123", "abc00123", "standard"},
		{"abp00001.mp4", "ABP-001", "abp00001", "standard"},
		{"ＳＳＩＳ１２３.mp4", "SSIS-123", "ssis00123", "standard"},
		{"300MIUM-001.mp4", "300MIUM-001", "mium00001", "digits-prefixed"},
		{"MDBK-0123.mp4", "MDBK-0123", "mdbk00123", "mdbk"},
		{"t28123.mp4", "T28-123", "t2800123", "t28"},
		{"FC2-PPV-1234567.mp4", "FC2-PPV-1234567", "fc2-ppv-1234567", "fc2"},
		{"fc2ppv_1234567.mp4", "FC2-PPV-1234567", "fc2-ppv-1234567", "fc2"},
		{"tokyo-hot-n1234.mp4", "n1234", "n1234", "tokyo-hot"},
		{"carib-123456-789.mp4", "123456-789", "123456-789", "caribbean"},
		{"caribbeancom-123456_789.mp4", "123456-789", "123456-789", "caribbean"},
		{"1pondo_123456_789.mp4", "123456_789", "123456_789", "1pondo"},
		{"10musume_123456_01.mp4", "123456_01", "123456_01", "10musume"},
		{"HEYZO-1234.mp4", "HEYZO-1234", "heyzo1234", "heyzo"},
		{"heyzo_hd_1234.avi", "HEYZO-1234", "heyzo1234", "heyzo"},
		{"heydouga-4017-123.mp4", "HEYDOUGA-4017-123", "heydouga-4017-123", "heydouga"},
		{"xxx-av-12345.mp4", "XXX-AV-12345", "xxx-av-12345", "xxx-av"},
		{"x-art.18.05.15.mp4", "x-art.18.05.15", "x-art.18.05.15", "x-art"},
		{"x-art.18.05.15", "x-art.18.05.15", "x-art.18.05.15", "x-art"},
		{"123456-789.mp4", "123456-789", "123456-789", "date-coded"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input, Config{})
			require.NoError(t, err)
			assert.Equal(t, tt.display, got.DisplayID)
			assert.Equal(t, tt.content, got.ContentID)
			assert.Equal(t, tt.family, got.Family)
		})
	}
}

func TestParse_PartExtraction(t *testing.T) {
	tests := []struct {
		input string
		part  int
	}{
		{"ABP-001-CD1.mp4", 1},
		{"ABP-001-cd2.avi", 2},
		{"ABP-001-pt3.mp4", 3},
		{"ABP-001 part 4.mp4", 4},
		{"ABP-001-A.mp4", 1},
		{"ABP-001-B.mp4", 2},
		{"ABP-001B.mp4", 2},
		{"ABP-001-Y.mp4", 25},
		{"ABP-001.mp4", 0},
		{"FC2-PPV-1234567-2.mp4", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input, Config{})
			require.NoError(t, err)
			assert.Equal(t, tt.part, got.Part)
			assert.NotContains(t, got.DisplayID, "CD")
		})
	}
}

func TestParse_DisplayIDAfterPartStrip(t *testing.T) {
	for _, in := range []string{"ABP-001-CD1.mp4", "ABP-001-A.mp4", "ABP-001-Y.mp4"} {
		got, err := Parse(in, Config{})
		require.NoError(t, err)
		assert.Equal(t, "ABP-001", got.DisplayID, in)
	}
}

func TestParse_ReservedZ(t *testing.T) {
	got, err := Parse("ABP-001-Z.mp4", Config{})
	require.NoError(t, err)

	assert.Equal(t, "ABP-001", got.DisplayID)
	assert.Equal(t, 0, got.Part, "Z must never be a part")
	assert.True(t, got.Attributes.ReservedMarker)
}

func TestParse_Attributes(t *testing.T) {
	tests := []struct {
		input      string
		subtitle   bool
		uncensored bool
	}{
		{"ABC-001-UC.mp4", true, true},
		{"ABC-001-C.mp4", true, false},
		{"ABC-001-U.mp4", false, true},
		{"ABC-001ch.mp4", true, false},
		{"ABC-001-uncensored.mp4", false, true},
		{"ABC-001.mp4", false, false},
		{"ABC-001-CD2-C.mp4", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input, Config{})
			require.NoError(t, err)
			assert.Equal(t, "ABC-001", got.DisplayID)
			assert.Equal(t, tt.subtitle, got.Attributes.Subtitle, "subtitle")
			assert.Equal(t, tt.uncensored, got.Attributes.Uncensored, "uncensored")
		})
	}
}

func TestParse_SpecialSiteIsUncensored(t *testing.T) {
	got, err := Parse("1pondo_123456_789.mp4", Config{})
	require.NoError(t, err)

	assert.True(t, got.Attributes.Uncensored)
	assert.Equal(t, "1pondo", got.Attributes.SpecialSite)
}

func TestParse_TieBreakDeterminism(t *testing.T) {
	// Both caribbeanpr and caribbean triggers match; caribbeanpr is registered first.
	// HEYZO-1234 matches both heyzo and standard; heyzo is registered first.
	cases := map[string]string{
		"caribbeancompr-123456_789.mp4": "caribbeanpr",
		"HEYZO-1234.mp4":                "heyzo",
	}
	for input, family := range cases {
		for i := 0; i < 50; i++ {
			got, err := Parse(input, Config{})
			require.NoError(t, err)
			require.Equal(t, family, got.Family, "run %d", i)
		}
	}
}

func TestParse_RemovalStrings(t *testing.T) {
	got, err := Parse("jav20s8-SSIS-123.mp4", Config{})
	require.NoError(t, err)
	assert.Equal(t, "JAV-020", got.DisplayID, "without removal the watermark wins")

	got, err = Parse("jav20s8-SSIS-123.mp4", Config{RemovalStrings: []string{"JAV20S8"}})
	require.NoError(t, err)
	assert.Equal(t, "SSIS-123", got.DisplayID)
}

func TestParse_NoPatternMatch(t *testing.T) {
	_, err := Parse("holiday video.mp4", Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPatternMatch))

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindNoPatternMatch, pe.Kind)
}

func TestParse_CustomFallback(t *testing.T) {
	cfg := Config{CustomPattern: `clip#(\d+)#([a-z]+)`, CustomGroups: []int{2, 1}}

	got, err := Parse("clip#77#foo.mp4", cfg)
	require.NoError(t, err)
	assert.Equal(t, "FOO-77", got.DisplayID)
	assert.Equal(t, "custom", got.Family)

	cfg.StrictMode = true
	_, err = Parse("clip#77#foo.mp4", cfg)
	assert.ErrorIs(t, err, ErrNoPatternMatch)
}

func TestParse_CustomFallbackNotUsedWhenRuleMatches(t *testing.T) {
	cfg := Config{CustomPattern: `(.+)`}
	got, err := Parse("ABC-123.mp4", cfg)
	require.NoError(t, err)
	assert.Equal(t, "standard", got.Family)
}

func TestParse_StrictAmbiguous(t *testing.T) {
	_, err := Parse("ABC-123 DEF-456.mp4", Config{StrictMode: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousMatch)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"ABC123", "DEF456"}, pe.Candidates)

	got, err := Parse("ABC-123 DEF-456.mp4", Config{})
	require.NoError(t, err)
	assert.Equal(t, "ABC-123", got.DisplayID, "non-strict keeps the first match")
}

func TestNewParser_InvalidCustomPattern(t *testing.T) {
	_, err := NewParser(Config{CustomPattern: `([a-z`})
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = NewParser(Config{CustomPattern: `([a-z]+)`, CustomGroups: []int{2}})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestOverride(t *testing.T) {
	id := Override("ABP-001", Config{})
	assert.Equal(t, "ABP-001", id.DisplayID)
	assert.Equal(t, "abp00001", id.ContentID)
	assert.Equal(t, "standard", id.Family)

	id = Override("HEYZO-1234", Config{})
	assert.Equal(t, "heyzo1234", id.ContentID)
	assert.True(t, id.Attributes.Uncensored)
}

func TestParsedIdentifier_String(t *testing.T) {
	got, err := Parse("ABC-001-CD2-UC.mp4", Config{})
	require.NoError(t, err)
	assert.Equal(t, "ABC-001-CD2-UC", got.String())
}

func TestParseTail(t *testing.T) {
	tests := []struct {
		tail string
		want tailInfo
	}{
		{"", tailInfo{}},
		{"-CD1", tailInfo{part: 1}},
		{"-A", tailInfo{part: 1}},
		{"-Y", tailInfo{part: 25}},
		{"-Z", tailInfo{reserved: true}},
		{"-C", tailInfo{subtitle: true}},
		{"-U", tailInfo{uncensored: true}},
		{"-UC", tailInfo{subtitle: true, uncensored: true}},
		{"-CD2-C", tailInfo{part: 2, subtitle: true}},
		{"-whatever-C", tailInfo{}},
	}

	for _, tt := range tests {
		t.Run(tt.tail, func(t *testing.T) {
			if got := parseTail(tt.tail); got != tt.want {
				t.Errorf("parseTail(%q) = %+v, want %+v", tt.tail, got, tt.want)
			}
		})
	}
}
