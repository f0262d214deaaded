package contentapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsnap/internal/content"
	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

func newAccessor(entries ...*content.Entry) *Accessor {
	return New(content.NewMemoryStore(entries...))
}

func TestGet_MarkdownDocument(t *testing.T) {
	a := newAccessor(&content.Entry{
		Key:  "guide/setup",
		Kind: content.KindMarkdown,
		Data: []byte("---\ntitle: Setting up\ndescription: Install the tool\ntags: [a, b]\n---\n" +
			"# Setup\n\nFirst paragraph.\n\n## Install *now*\n\n<script>alert(1)</script>\n"),
	})

	v, err := a.Get(context.Background(), "guide/setup")
	require.NoError(t, err)
	doc, ok := v.(*Document)
	require.True(t, ok)

	require.Equal(t, "guide/setup", doc.Key)
	require.Equal(t, "/guide/setup", doc.Path)
	require.Equal(t, "Setting up", doc.Title)
	require.Equal(t, "Install the tool", doc.Description)
	require.Equal(t, []any{"a", "b"}, doc.Frontmatter["tags"])
	require.NotEmpty(t, doc.Fingerprint)
	require.Contains(t, doc.Body, `<h1 id="setup">Setup</h1>`)
	require.NotContains(t, doc.Body, "<script>")
	require.Equal(t, []Heading{
		{ID: "setup", Depth: 1, Text: "Setup"},
		{ID: "install-now", Depth: 2, Text: "Install now"},
	}, doc.TOC)
}

func TestGet_MarkdownFallbacks(t *testing.T) {
	a := newAccessor(
		&content.Entry{Key: "guide/index", Kind: content.KindMarkdown, Data: []byte("# Guide Home\n\nWelcome   to the\nguide.\n")},
		&content.Entry{Key: "notes/plain", Kind: content.KindMarkdown, Data: []byte("just text\n")},
	)

	v, err := a.Get(context.Background(), "guide/index")
	require.NoError(t, err)
	doc := v.(*Document)
	require.Equal(t, "/guide", doc.Path)
	require.Equal(t, "Guide Home", doc.Title)
	require.Equal(t, "Welcome to the guide.", doc.Description)

	v, err = a.Get(context.Background(), "notes/plain")
	require.NoError(t, err)
	require.Equal(t, "plain", v.(*Document).Title)
}

func TestGet_FingerprintTracksContent(t *testing.T) {
	a := newAccessor(
		&content.Entry{Key: "a", Kind: content.KindMarkdown, Data: []byte("# A\n")},
		&content.Entry{Key: "b", Kind: content.KindMarkdown, Data: []byte("# A\n")},
		&content.Entry{Key: "c", Kind: content.KindMarkdown, Data: []byte("# C\n")},
	)
	ctx := context.Background()
	va, _ := a.Get(ctx, "a")
	vb, _ := a.Get(ctx, "b")
	vc, _ := a.Get(ctx, "c")

	require.Equal(t, va.(*Document).Fingerprint, vb.(*Document).Fingerprint)
	require.NotEqual(t, va.(*Document).Fingerprint, vc.(*Document).Fingerprint)
}

func TestGet_JSONPassThrough(t *testing.T) {
	a := newAccessor(
		&content.Entry{Key: "settings", Kind: content.KindJSON, Data: []byte("  {\"title\": \"Docs\"}\n")},
		&content.Entry{Key: "broken", Kind: content.KindJSON, Data: []byte("{")},
	)
	ctx := context.Background()

	v, err := a.Get(ctx, "settings")
	require.NoError(t, err)
	raw, ok := v.(json.RawMessage)
	require.True(t, ok)
	require.JSONEq(t, `{"title":"Docs"}`, string(raw))

	_, err = a.Get(ctx, "broken")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
}

func TestGet_Errors(t *testing.T) {
	a := newAccessor(
		&content.Entry{Key: "weird", Kind: content.Kind("yaml"), Data: []byte("a: 1")},
		&content.Entry{Key: "unterminated", Kind: content.KindMarkdown, Data: []byte("---\ntitle: x\n")},
	)
	ctx := context.Background()

	_, err := a.Get(ctx, "missing")
	require.True(t, ferrors.IsNotFound(err))

	_, err = a.Get(ctx, "weird")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))

	_, err = a.Get(ctx, "unterminated")
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
}

func TestRoutePath(t *testing.T) {
	require.Equal(t, "/", RoutePath("index"))
	require.Equal(t, "/guide", RoutePath("guide/index"))
	require.Equal(t, "/guide/setup", RoutePath("guide/setup"))
	require.Equal(t, "/reindex", RoutePath("reindex"))
}
