package rules

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cdmgtri/niem-model-qa-sub000/model"
)

// builtinPrefixes are namespaces whose components are never in the model,
// such as the XML Schema built-in types.
var builtinPrefixes = map[string]bool{"xs": true}

// Resolver answers "does this qname exist" with at most one store lookup per
// distinct kind and label, even when rules ask concurrently.
type Resolver struct {
	store   model.Store
	metrics *Metrics
	group   singleflight.Group

	mu    sync.RWMutex
	cache map[string]bool
}

// NewResolver creates a resolver over store.
func NewResolver(store model.Store, metrics *Metrics) *Resolver {
	return &Resolver{store: store, metrics: metrics, cache: make(map[string]bool)}
}

// Exists reports whether the component of kind with label exists.
func (r *Resolver) Exists(ctx context.Context, kind model.Kind, label string) (bool, error) {
	if prefix, _ := model.SplitQName(label); builtinPrefixes[prefix] {
		return true, nil
	}

	key := string(kind) + "|" + label
	r.mu.RLock()
	found, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return found, nil
	}

	// The shared lookup must not fail other waiters when this caller is cancelled.
	lookupCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(key, func() (any, error) {
		r.mu.RLock()
		found, ok := r.cache[key]
		r.mu.RUnlock()
		if ok {
			return found, nil
		}

		r.metrics.IncrementLookups()
		_, err := r.store.Get(lookupCtx, kind, label)
		switch {
		case err == nil:
			found = true
		case errors.Is(err, model.ErrNotFound):
			found = false
		default:
			return false, err
		}

		r.mu.Lock()
		r.cache[key] = found
		r.mu.Unlock()
		return found, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
