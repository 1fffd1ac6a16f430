// Package storage provides a model store backed by a NATS JetStream KV bucket.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/cdmgtri/niem-model-qa-sub000/model"
)

// DefaultBucket is the KV bucket holding model components.
const DefaultBucket = "NIEMQA_MODEL"

// emptyToken stands in for an empty label, which cannot be a key token.
const emptyToken = "-"

// Key returns the KV key of the component with the given kind and label.
// Labels are base64url encoded since they may hold characters that are not
// valid in KV keys.
func Key(kind model.Kind, label string) string {
	return string(kind) + "." + encodeToken(label)
}

// ParseKey splits a KV key into kind and label.
func ParseKey(key string) (model.Kind, string, error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid key format: %s", key)
	}
	kind := model.Kind(parts[0])
	if !kind.IsValid() {
		return "", "", fmt.Errorf("unknown component kind: %s", parts[0])
	}
	label, err := decodeToken(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("invalid key label %q: %w", parts[1], err)
	}
	return kind, label, nil
}

func encodeToken(s string) string {
	if s == "" {
		return emptyToken
	}
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func decodeToken(s string) (string, error) {
	if s == emptyToken {
		return "", nil
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// KVStore implements model.Store over a JetStream KV bucket.
type KVStore struct {
	kv jetstream.KeyValue
}

// NewKVStore opens the bucket, creating it if it does not exist.
func NewKVStore(ctx context.Context, js jetstream.JetStream, bucket string) (*KVStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("create model bucket: %w", err)
	}
	return &KVStore{kv: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "NIEM model components",
		History:     1,
	})
}

// Import writes components to the bucket, replacing existing entries with the
// same kind and label. It returns the number of components written.
func (s *KVStore) Import(ctx context.Context, components []*model.Component) (int, error) {
	n := 0
	for _, c := range components {
		if c == nil {
			continue
		}
		if _, err := s.kv.Put(ctx, Key(c.Kind, c.Label()), c.Raw()); err != nil {
			return n, fmt.Errorf("store %s %q: %w", c.Kind, c.Label(), err)
		}
		n++
	}
	return n, nil
}

// Clear purges every component from the bucket ahead of a fresh import.
func (s *KVStore) Clear(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("list model keys: %w", err)
	}
	for _, key := range keys {
		if err := s.kv.Purge(ctx, key); err != nil {
			return fmt.Errorf("purge %s: %w", key, err)
		}
	}
	return nil
}

// Get returns the component with the given kind and label.
func (s *KVStore) Get(ctx context.Context, kind model.Kind, label string) (*model.Component, error) {
	entry, err := s.kv.Get(ctx, Key(kind, label))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%s %q: %w", kind, label, model.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s %q: %w", kind, label, err)
	}
	c, err := model.NewComponent(kind, entry.Value())
	if err != nil {
		return nil, fmt.Errorf("decode %s %q: %w", kind, label, err)
	}
	return c, nil
}

// Find scans the bucket for components matching criteria, in key order.
func (s *KVStore) Find(ctx context.Context, criteria model.Criteria) ([]*model.Component, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list model keys: %w", err)
	}
	sort.Strings(keys)

	var out []*model.Component
	for _, key := range keys {
		if criteria.Kind != "" && !strings.HasPrefix(key, string(criteria.Kind)+".") {
			continue
		}
		kind, label, err := ParseKey(key)
		if err != nil {
			continue // Skip keys written by other tools
		}
		c, err := s.Get(ctx, kind, label)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				continue // Deleted since listing
			}
			return nil, err
		}
		if criteria.Matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// LocalTerm returns the local terminology entry for term in prefix.
func (s *KVStore) LocalTerm(ctx context.Context, prefix, term string) (*model.Component, error) {
	return s.Get(ctx, model.KindLocalTerm, model.LocalTermLabel(prefix, term))
}

// LocalTerms returns every local terminology entry in prefix.
func (s *KVStore) LocalTerms(ctx context.Context, prefix string) ([]*model.Component, error) {
	return s.Find(ctx, model.Criteria{Kind: model.KindLocalTerm, Prefix: prefix})
}

// Namespace returns the namespace with the given prefix.
func (s *KVStore) Namespace(ctx context.Context, prefix string) (*model.Component, error) {
	return s.Get(ctx, model.KindNamespace, prefix)
}
