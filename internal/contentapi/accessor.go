// Package contentapi turns stored content entries into the documents clients fetch.
package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/inful/mdfp"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmtext "github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docsnap/internal/content"
	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/frontmatter"
)

// Document is the rendered form of a Markdown entry. It depends only on the
// entry's bytes, so untouched content keeps its snapshot fingerprint.
type Document struct {
	Key         string         `json:"key"`
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Fingerprint string         `json:"fingerprint"`
	Frontmatter map[string]any `json:"frontmatter"`
	Body        string         `json:"body"`
	TOC         []Heading      `json:"toc"`
}

// Heading is one table of contents entry.
type Heading struct {
	ID    string `json:"id"`
	Depth int    `json:"depth"`
	Text  string `json:"text"`
}

// Getter fetches the client value for a key.
type Getter interface {
	Get(ctx context.Context, key string) (any, error)
}

// Accessor renders entries from a content store.
type Accessor struct {
	store    content.Store
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// New returns an Accessor reading from store.
func New(store content.Store) *Accessor {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return &Accessor{store: store, markdown: md, policy: policy}
}

// Get returns a *Document for Markdown entries and a json.RawMessage for JSON entries.
func (a *Accessor) Get(ctx context.Context, key string) (any, error) {
	entry, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	switch entry.Kind {
	case content.KindJSON:
		if !json.Valid(entry.Data) {
			return nil, ferrors.ContentError("entry is not valid JSON").WithContext("key", key).Build()
		}
		return json.RawMessage(bytes.TrimSpace(entry.Data)), nil
	case content.KindMarkdown:
		return a.Render(entry)
	default:
		return nil, ferrors.ContentError("unsupported entry kind").
			WithContext("key", key).
			WithContext("kind", string(entry.Kind)).
			Build()
	}
}

// Render converts a Markdown entry into a Document.
func (a *Accessor) Render(entry *content.Entry) (*Document, error) {
	rawFM, body, _, err := frontmatter.Split(entry.Data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "split frontmatter").
			WithContext("key", entry.Key).
			Build()
	}
	fields, err := frontmatter.Parse(rawFM)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "parse frontmatter").
			WithContext("key", entry.Key).
			Build()
	}

	root := a.markdown.Parser().Parse(gmtext.NewReader(body))
	toc := collectHeadings(root, body)

	var rendered bytes.Buffer
	if err := a.markdown.Renderer().Render(&rendered, body, root); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "render markdown").
			WithContext("key", entry.Key).
			Build()
	}
	safe := a.policy.SanitizeBytes(rendered.Bytes())

	doc := &Document{
		Key:         entry.Key,
		Path:        RoutePath(entry.Key),
		Title:       stringField(fields, "title"),
		Description: stringField(fields, "description"),
		Fingerprint: mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(rawFM), "\n"), string(body)),
		Frontmatter: fields,
		Body:        string(safe),
		TOC:         toc,
	}
	if doc.Title == "" || doc.Description == "" {
		h1, para := extractSummary(safe)
		if doc.Title == "" {
			doc.Title = h1
		}
		if doc.Description == "" {
			doc.Description = para
		}
	}
	if doc.Title == "" {
		doc.Title = path.Base(entry.Key)
	}
	return doc, nil
}

// RoutePath maps a key to the client route. "index" segments collapse to their parent.
func RoutePath(key string) string {
	switch {
	case key == "index":
		return "/"
	case strings.HasSuffix(key, "/index"):
		return "/" + strings.TrimSuffix(key, "/index")
	default:
		return "/" + key
	}
}

func stringField(fields map[string]any, name string) string {
	if v, ok := fields[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
