package sources

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Type selects the normalization and fallback rules for a source.
type Type string

const (
	TypeG1            Type = "g1"
	TypeSantaPortal   Type = "santa-portal"
	TypeDiarioLitoral Type = "diario-litoral"
)

// G1Fallback is a Google News search feed scoped to g1.globo.com, used when
// the g1 regional feed rejects us.
const G1Fallback = "https://news.google.com/rss/search?q=santos+OR+baixada+santista+site:g1.globo.com&hl=pt-BR&gl=BR&ceid=BR:pt-419"

// NewsSource is one configured feed.
type NewsSource struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Type    Type   `yaml:"type" json:"type"`
	FeedURL string `yaml:"url" json:"feedUrl"`
	// Fallbacks overrides the type-level fallback list when set.
	Fallbacks []string `yaml:"fallbacks,omitempty" json:"fallbacks,omitempty"`
}

// Defaults is the built-in source list.
var Defaults = []NewsSource{
	{ID: "g1", Name: "G1 Santos e Região", Type: TypeG1, FeedURL: "https://g1.globo.com/rss/g1/sp/santos-regiao/"},
	{ID: "santa-portal", Name: "Santa Portal", Type: TypeSantaPortal, FeedURL: "https://santaportal.com.br/feed/"},
	{ID: "diario-litoral", Name: "Diário do Litoral", Type: TypeDiarioLitoral, FeedURL: "https://www.diariodolitoral.com.br/praia-grande/rss/"},
}

// DefaultFallbacks lists alternate feeds per source type, tried in order
// after the primary URL fails.
var DefaultFallbacks = map[Type][]string{
	TypeG1: {G1Fallback},
}

// Registry is the immutable set of configured sources.
type Registry struct {
	sources   []NewsSource
	byID      map[string]NewsSource
	fallbacks map[Type][]string
}

func NewRegistry(list []NewsSource, fallbacks map[Type][]string) (*Registry, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}

	r := &Registry{
		sources:   make([]NewsSource, 0, len(list)),
		byID:      make(map[string]NewsSource, len(list)),
		fallbacks: make(map[Type][]string, len(fallbacks)),
	}
	for t, urls := range fallbacks {
		r.fallbacks[t] = append([]string(nil), urls...)
	}

	for _, s := range list {
		s.ID = strings.TrimSpace(s.ID)
		s.FeedURL = strings.TrimSpace(s.FeedURL)
		if s.ID == "" || s.FeedURL == "" {
			return nil, fmt.Errorf("source %q: id and url are required", s.Name)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %q", s.ID)
		}
		if s.Name == "" {
			s.Name = s.ID
		}
		r.sources = append(r.sources, s)
		r.byID[s.ID] = s
	}
	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := NewRegistry(Defaults, DefaultFallbacks)
	if err != nil {
		panic(err)
	}
	return r
}

// sourcesFile is the YAML layout:
//
//	sources:
//	  - id: g1
//	    name: G1 Santos e Região
//	    type: g1
//	    url: https://...
//	fallbacks:
//	  g1:
//	    - https://...
type sourcesFile struct {
	Sources   []NewsSource      `yaml:"sources"`
	Fallbacks map[Type][]string `yaml:"fallbacks"`
}

// Load reads a registry from a YAML file. A file without a fallbacks
// section keeps the built-in fallbacks.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg sourcesFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	fallbacks := cfg.Fallbacks
	if fallbacks == nil {
		fallbacks = DefaultFallbacks
	}
	return NewRegistry(cfg.Sources, fallbacks)
}

// All returns the sources in configured order.
func (r *Registry) All() []NewsSource {
	return append([]NewsSource(nil), r.sources...)
}

func (r *Registry) IDs() []string {
	return lo.Map(r.sources, func(s NewsSource, _ int) string { return s.ID })
}

func (r *Registry) Get(id string) (NewsSource, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Strategies returns the ordered URLs to try for a source: the primary feed
// first, then the fallbacks for its type.
func (r *Registry) Strategies(s NewsSource) []string {
	fallbacks := s.Fallbacks
	if len(fallbacks) == 0 {
		fallbacks = r.fallbacks[s.Type]
	}
	urls := append([]string{s.FeedURL}, fallbacks...)
	return lo.Uniq(urls)
}
