// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memory keeps uploaded objects in process memory. Dry runs and tests
// use it in place of a real object store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/remote"
)

// Name is the registry name of this gateway
const Name = "memory"

func init() {
	remote.Register(Name, func(ctx context.Context, cfg remote.Config) (remote.Gateway, error) {
		return New(), nil
	})
}

var _ remote.Gateway = (*Gateway)(nil)

// 🧠 Gateway stores objects keyed by bucket and key
type Gateway struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    map[string]error
	calls   int
}

// New creates an empty gateway
func New() *Gateway {
	return &Gateway{
		objects: make(map[string][]byte),
		fail:    make(map[string]error),
	}
}

func (g *Gateway) Name() string {
	return Name
}

// FailKey makes every upload of key return err
func (g *Gateway) FailKey(key string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[key] = err
}

func (g *Gateway) Upload(ctx context.Context, bucket, key string, content []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++

	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.Errorf("putting %s: %w", key, remote.ErrTimeout)
		}
		return errors.Errorf("putting %s: %w", key, err)
	}

	if err, ok := g.fail[key]; ok {
		return errors.Errorf("putting %s: %w", key, err)
	}

	g.objects[bucket+"/"+key] = append([]byte(nil), content...)

	zerolog.Ctx(ctx).Debug().Str("bucket", bucket).Str("key", key).Msg("object stored in memory")
	return nil
}

// Object returns the stored content of key in bucket
func (g *Gateway) Object(bucket, key string) ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	content, ok := g.objects[bucket+"/"+key]
	return content, ok
}

// Keys returns every stored "bucket/key", sorted
func (g *Gateway) Keys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	keys := make([]string, 0, len(g.objects))
	for k := range g.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns how many uploads were attempted
func (g *Gateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
