package video

import (
	"fmt"
	"sort"

	"coursemart/internal/config"
)

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
	def       string
}

// NewRegistry registers the given providers. def names the provider used when none is requested.
func NewRegistry(def string, providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers)), def: def}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// NewRegistryFromConfig registers every provider that has credentials configured.
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	var ps []Provider
	if cfg.MuxTokenID != "" && cfg.MuxTokenSecret != "" {
		ps = append(ps, NewMux(cfg.MuxTokenID, cfg.MuxTokenSecret, cfg.MuxCORSOrigin))
	}
	if cfg.CloudflareAccountID != "" && cfg.CloudflareAPIToken != "" {
		ps = append(ps, NewCloudflare(cfg.CloudflareAccountID, cfg.CloudflareAPIToken, cfg.CloudflareMaxDuration))
	}
	if cfg.VimeoAccessToken != "" {
		ps = append(ps, NewVimeo(cfg.VimeoAccessToken))
	}
	return NewRegistry(cfg.VideoProvider, ps...)
}

// Get returns the named provider, or the default one when name is empty.
func (r *Registry) Get(name string) (Provider, error) {
	if name == "" {
		name = r.def
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists the registered providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
