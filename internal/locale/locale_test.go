package locale

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedLocales(t *testing.T) {
	for _, name := range []string{"ko", "en"} {
		t.Run(name, func(t *testing.T) {
			l, err := Load(name)
			require.NoError(t, err)
			require.Equal(t, name, l.Name)
			require.Len(t, l.Tones.Catalog, 5)
			require.True(t, l.IsTone(l.Tones.Default))
			require.NotEmpty(t, l.Markers.Bullets)
		})
	}
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("xx")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown locale")

	_, err = Load(" ")
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	data, err := embedded.ReadFile("locales/en.yaml")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	l, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[Opening", l.Markers.Opening)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParse_Validation(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{name: "bad yaml", doc: "name: [", want: "decode"},
		{name: "no labels", doc: "name: x", want: "labels are required"},
		{
			name: "no markers",
			doc: `
input: {topic_labels: [t], outline_labels: [o]}
`,
			want: "markers are required",
		},
		{
			name: "header without marker",
			doc: `
input: {topic_labels: [t], outline_labels: [o]}
markers: {opening: "[A", body: "[B", closing: "[C", bullets: ["-"], headers: {opening: "[A]", body: "[X]", closing: "[C]"}}
`,
			want: "must contain its marker",
		},
		{
			name: "short catalog",
			doc: `
input: {topic_labels: [t], outline_labels: [o]}
markers: {opening: "[A", body: "[B", closing: "[C", bullets: ["-"], headers: {opening: "[A]", body: "[B]", closing: "[C]"}}
tones: {default: a, catalog: [{label: a}]}
`,
			want: "must have 5 entries",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRender(t *testing.T) {
	l, err := Load("en")
	require.NoError(t, err)

	out, err := l.Render("reason.input_too_long", struct{ MaxLength, MinLength int }{MaxLength: 1000, MinLength: 3})
	require.NoError(t, err)
	require.Contains(t, out, "1000")

	out, err = l.Render(TemplateUpstream, struct{ Error string }{Error: "boom"})
	require.NoError(t, err)
	require.Contains(t, out, "boom")

	_, err = l.Render("nope", nil)
	require.Error(t, err)
}

func TestRender_ToneCatalogIsNumbered(t *testing.T) {
	l, err := Load("ko")
	require.NoError(t, err)

	out, err := l.Render(TemplateToneUser, struct {
		Topic, Outline, Default string
		Tones                   []Tone
	}{Topic: "AI의 미래", Outline: "경제", Default: l.Tones.Default, Tones: l.Tones.Catalog})
	require.NoError(t, err)
	require.Contains(t, out, "1. "+l.Tones.Catalog[0].Label)
	require.Contains(t, out, "5. "+l.Tones.Catalog[4].Label)
	require.Contains(t, out, "AI의 미래")
}

func TestGuideline(t *testing.T) {
	l, err := Load("ko")
	require.NoError(t, err)
	require.Equal(t, l.Tones.Catalog[1].Guideline, l.Guideline(l.Tones.Catalog[1].Label))
	require.Equal(t, l.Tones.FallbackGuideline, l.Guideline("unknown"))
}
