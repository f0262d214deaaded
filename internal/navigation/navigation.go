// Package navigation derives the site navigation tree from content keys.
//
// The tree is stored as a JSON entry under Key, so it is picked up by the snapshot
// like any other document.
package navigation

import (
	"cmp"
	"context"
	"encoding/json"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docsnap/internal/content"
	"git.home.luguber.info/inful/docsnap/internal/contentapi"
	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
)

// Key is the reserved content key the navigation tree is stored under.
const Key = "navigation"

// Link is one navigation node. Directory nodes without an index document have no To.
type Link struct {
	Title    string  `json:"title"`
	To       string  `json:"to,omitempty"`
	Children []*Link `json:"children,omitempty"`

	weight  int
	dirs    map[string]*Link
	indexed bool // described by "<dir>/index"
}

// Updater rebuilds the navigation entry.
type Updater struct {
	store  content.WritableStore
	getter contentapi.Getter
	logger *slog.Logger
}

// NewUpdater returns an Updater that reads documents through getter and writes the
// tree into store.
func NewUpdater(store content.WritableStore, getter contentapi.Getter, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{store: store, getter: getter, logger: logger}
}

// Update builds the tree and stores it under Key.
func (u *Updater) Update(ctx context.Context) error {
	start := time.Now()
	tree, err := u.Build(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryContent, "encode navigation").Build()
	}
	if err := u.store.Set(ctx, &content.Entry{Key: Key, Kind: content.KindJSON, Data: data}); err != nil {
		return ferrors.StoreError("store navigation").WithCause(err).Build()
	}
	u.logger.Debug("Navigation updated",
		logfields.Keys(len(tree)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return nil
}

// Build returns the top-level navigation links, ordered by weight then title.
func (u *Updater) Build(ctx context.Context) ([]*Link, error) {
	keys, err := u.store.ListKeys(ctx)
	if err != nil {
		return nil, ferrors.StoreError("list content keys").WithCause(err).Build()
	}

	caser := cases.Title(language.Und)
	root := &Link{dirs: map[string]*Link{}}
	for _, key := range keys {
		if key == Key {
			continue
		}
		value, err := u.getter.Get(ctx, key)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryContent, "load navigation entry").
				WithContext("key", key).
				Build()
		}
		page, ok := pageFor(key, value, caser)
		if !ok {
			directory(root, strings.TrimSuffix(path.Dir(key), "."), caser)
			continue
		}
		place(root, key, page, caser)
	}
	sortLinks(root)
	return root.Children, nil
}

type page struct {
	title  string
	to     string
	weight int
}

func pageFor(key string, value any, caser cases.Caser) (page, bool) {
	p := page{title: segmentTitle(path.Base(key), caser), to: contentapi.RoutePath(key)}
	doc, ok := value.(*contentapi.Document)
	if !ok {
		return p, true
	}
	if hidden, ok := doc.Frontmatter["navigation"].(bool); ok && !hidden {
		return p, false
	}
	if doc.Title != "" {
		p.title = doc.Title
	}
	p.to = doc.Path
	p.weight = weight(doc.Frontmatter["weight"])
	return p, true
}

// place attaches a page under its directory. "<dir>/index" and a sibling "<dir>"
// page both describe the <dir> node; the index page wins.
func place(root *Link, key string, p page, caser cases.Caser) {
	dir, name := path.Split(key)
	dir = strings.TrimSuffix(dir, "/")
	if name == "index" && dir != "" {
		node := directory(root, dir, caser)
		node.Title, node.To, node.weight = p.title, p.to, p.weight
		node.indexed = true
		return
	}
	node := directory(root, path.Join(dir, name), caser)
	if node.indexed {
		return
	}
	node.Title, node.To, node.weight = p.title, p.to, p.weight
}

func directory(root *Link, dir string, caser cases.Caser) *Link {
	if dir == "" {
		return root
	}
	node := root
	for _, seg := range strings.Split(dir, "/") {
		child, ok := node.dirs[seg]
		if !ok {
			child = &Link{Title: segmentTitle(seg, caser), dirs: map[string]*Link{}}
			node.dirs[seg] = child
			node.Children = append(node.Children, child)
		}
		node = child
	}
	return node
}

func sortLinks(node *Link) {
	slices.SortStableFunc(node.Children, func(a, b *Link) int {
		if c := cmp.Compare(a.weight, b.weight); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})
	for _, child := range node.Children {
		sortLinks(child)
	}
}

// segmentTitle turns "getting-started" into "Getting Started".
func segmentTitle(seg string, caser cases.Caser) string {
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	return caser.String(strings.Join(strings.Fields(seg), " "))
}

func weight(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
