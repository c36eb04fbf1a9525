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

package remote

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// ErrTimeout is returned (wrapped) when an upload does not complete in time
var ErrTimeout = errors.Base("upload timed out")

// Gateway is the capability boundary to the remote object store
type Gateway interface {
	// Name returns the name the gateway is registered under (e.g. "s3")
	Name() string
	// Upload stores content under key in bucket. It does not retry.
	Upload(ctx context.Context, bucket, key string, content []byte) error
}

// Config carries everything a gateway needs to connect. It is passed
// explicitly; gateways never read the process environment.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
}

// Factory builds a gateway from its config
type Factory func(ctx context.Context, cfg Config) (Gateway, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a gateway available under name. Implementations call it from init.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Names returns the registered gateway names, sorted
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	options := make([]string, 0, len(registry))
	for k := range registry {
		options = append(options, k)
	}
	sort.Strings(options)
	return options
}

// New builds the gateway registered under name
func New(ctx context.Context, name string, cfg Config) (Gateway, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.Errorf("gateway %s not found, options: %s", name, strings.Join(Names(), ", "))
	}

	gw, err := factory(ctx, cfg)
	if err != nil {
		return nil, errors.Errorf("creating %s gateway: %w", name, err)
	}
	return gw, nil
}

// IsTimeout reports whether err is an upload timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
