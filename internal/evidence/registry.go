// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pdiddy/brief-analyst/internal/score"
	"github.com/pdiddy/brief-analyst/pkg/types"
)

// Provider names used by topic plans.
const (
	ProviderSerpAPI       = "serpapi"
	ProviderCourtListener = "courtlistener"
	ProviderGovInfo       = "govinfo"
	ProviderEDGAR         = "edgar"
)

// Registry maps provider names to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds all four provider adapters on the caller-owned client.
// Providers without credentials are still registered; they return no
// results when called.
func NewRegistry(cfg types.ProvidersConfig, client *http.Client, scorer *score.Scorer, logger *zerolog.Logger) *Registry {
	d := Deps{Client: client, Scorer: scorer, HTTP: cfg.HTTPConfig, Logger: logger}
	r := &Registry{adapters: make(map[string]Adapter)}
	r.Register(NewWebSearch(cfg.SerpAPIKey, d))
	r.Register(NewCaseLaw(cfg.CourtListenerToken, d))
	r.Register(NewGovDocs(cfg.GovInfoAPIKey, d))
	r.Register(NewFilings(d))
	return r
}

// Register adds or replaces an adapter under its Name.
func (r *Registry) Register(a Adapter) {
	if r.adapters == nil {
		r.adapters = make(map[string]Adapter)
	}
	r.adapters[a.Name()] = a
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
