package content

import (
	"context"

	"git.home.luguber.info/inful/docsnap/internal/config"
	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/retry"
)

// Source is an opened content store and the function that releases it.
type Source struct {
	Store Store
	// Watch is a local directory watch mode can observe; empty for remote stores.
	Watch string
	close func() error
}

// Close releases the backend.
func (s *Source) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// Open builds the store selected by cfg.
func Open(ctx context.Context, cfg config.ContentConfig) (*Source, error) {
	switch cfg.Type {
	case config.ContentSourceFS, "":
		st, err := NewFSStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return &Source{Store: st, Watch: cfg.Dir}, nil

	case config.ContentSourceSQLite:
		st, err := NewSQLiteStore(cfg.SQLite.Path, cfg.SQLite.Table)
		if err != nil {
			return nil, err
		}
		return &Source{Store: st, close: st.Close}, nil

	case config.ContentSourceNATS:
		var st *NATSStore
		err := retry.Do(ctx, retry.FromConfig(cfg.Retry), nil, func(ctx context.Context) error {
			var err error
			st, err = NewNATSStore(ctx, cfg.NATS.URL, cfg.NATS.Bucket)
			return err
		})
		if err != nil {
			return nil, err
		}
		return &Source{Store: st, close: st.Close}, nil

	case config.ContentSourceGit:
		src := &GitSource{
			URL:       cfg.Git.URL,
			Branch:    cfg.Git.Branch,
			Subdir:    cfg.Dir,
			Workspace: cfg.Git.Workspace,
		}
		var st *FSStore
		err := retry.Do(ctx, retry.FromConfig(cfg.Retry), nil, func(ctx context.Context) error {
			var err error
			st, err = src.Open(ctx)
			return err
		})
		if err != nil {
			_ = src.Close()
			return nil, err
		}
		return &Source{Store: st, close: src.Close}, nil

	default:
		return nil, ferrors.ConfigError("unknown content source type").
			WithContext("type", string(cfg.Type)).
			Build()
	}
}
