package content

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// markdownSuffix marks NATS keys whose values are Markdown rather than JSON.
const markdownSuffix = ".md"

// NATSStore reads entries from a JetStream key-value bucket.
//
// NATS keys may contain "/", so content keys are used verbatim. A value stored under
// "<key>.md" is Markdown; any other value is a JSON document.
type NATSStore struct {
	conn   *nats.Conn
	kv     jetstream.KeyValue
	bucket string
}

// NewNATSStore connects to url and binds to bucket, creating the bucket if it does not exist.
func NewNATSStore(ctx context.Context, url, bucket string) (*NATSStore, error) {
	conn, err := nats.Connect(url, nats.Name("docsnap"))
	if err != nil {
		return nil, ferrors.NetworkError("connect to NATS").WithCause(err).
			WithContext("url", url).
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.StoreError("create JetStream context").WithCause(err).Build()
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := js.KeyValue(initCtx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(initCtx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "docsnap content entries",
			History:     1,
		})
	}
	if err != nil {
		conn.Close()
		return nil, ferrors.StoreError("bind key-value bucket").WithCause(err).
			WithContext("bucket", bucket).
			Build()
	}

	slog.Info("NATS content store ready", "url", url, "bucket", bucket)
	return &NATSStore{conn: conn, kv: kv, bucket: bucket}, nil
}

func (s *NATSStore) ListKeys(ctx context.Context) ([]string, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, ferrors.StoreError("list bucket keys").WithCause(err).
			WithContext("bucket", s.bucket).
			Build()
	}
	defer func() { _ = lister.Stop() }()

	var keys []string
	for k := range lister.Keys() {
		keys = append(keys, strings.TrimSuffix(k, markdownSuffix))
	}
	return sortedUnique(keys), nil
}

func (s *NATSStore) Get(ctx context.Context, key string) (*Entry, error) {
	for _, candidate := range []struct {
		name string
		kind Kind
	}{
		{key + markdownSuffix, KindMarkdown},
		{key, KindJSON},
	} {
		kve, err := s.kv.Get(ctx, candidate.name)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, ferrors.StoreError("get bucket entry").WithCause(err).
				WithContext("bucket", s.bucket).
				WithContext("key", candidate.name).
				Build()
		}
		return &Entry{Key: key, Kind: candidate.kind, Data: kve.Value(), ModTime: kve.Created()}, nil
	}
	return nil, notFound(key)
}

func (s *NATSStore) Set(ctx context.Context, entry *Entry) error {
	if err := ValidateKey(entry.Key); err != nil {
		return err
	}
	name := entry.Key
	if entry.Kind == KindMarkdown {
		name += markdownSuffix
	}
	if _, err := s.kv.Put(ctx, name, entry.Data); err != nil {
		return ferrors.StoreError("put bucket entry").WithCause(err).
			WithContext("bucket", s.bucket).
			WithContext("key", name).
			Build()
	}
	return nil
}

// Close drains the connection.
func (s *NATSStore) Close() error {
	return s.conn.Drain()
}
