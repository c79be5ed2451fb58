// Package profile loads the per-site persona and style configuration.
//
// Profiles are plain values: load them once and pass them into each request.
package profile

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var embedded embed.FS

type Profile struct {
	Name          string              `yaml:"name" json:"name"`
	Slug          string              `yaml:"slug" json:"slug"`
	URL           string              `yaml:"url" json:"url"`
	Persona       Persona             `yaml:"persona" json:"persona"`
	Content       Content             `yaml:"content" json:"content"`
	TitleFormulas []string            `yaml:"title_formulas" json:"title_formulas,omitempty"`
	Structure     []string            `yaml:"structure" json:"structure,omitempty"`
	InternalLinks []Link              `yaml:"internal_links" json:"internal_links,omitempty"`
	Variations    []string            `yaml:"variations" json:"variations,omitempty"`
	Subjects      []string            `yaml:"subjects" json:"subjects"`
	Categories    map[string][]string `yaml:"categories" json:"categories,omitempty"`
	Anecdotes     map[string]string   `yaml:"anecdotes" json:"anecdotes,omitempty"`
}

type Persona struct {
	Who         string   `yaml:"who" json:"who"`
	Audience    string   `yaml:"audience" json:"audience"`
	Tone        string   `yaml:"tone" json:"tone"`
	Backstory   string   `yaml:"backstory" json:"backstory,omitempty"`
	Phrases     []string `yaml:"phrases" json:"phrases,omitempty"`
	Disclaimers []string `yaml:"disclaimers" json:"disclaimers,omitempty"`
	NeverSay    []string `yaml:"never_say" json:"never_say,omitempty"`
}

type Content struct {
	WordMin     int     `yaml:"word_min" json:"word_min"`
	WordMax     int     `yaml:"word_max" json:"word_max"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens,omitempty"`
}

// Link is a static link the site always wants referenced.
type Link struct {
	Label string `yaml:"label" json:"label"`
	Path  string `yaml:"path" json:"path"`
}

const defaultAnecdoteKey = "default"

// Variation returns the supplementary instruction for a 1-based attempt,
// clamped to the last entry.
func (p Profile) Variation(attempt int) string {
	if len(p.Variations) == 0 {
		return ""
	}
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.Variations) {
		idx = len(p.Variations) - 1
	}
	return p.Variations[idx]
}

// Related lists the other subjects that share a category with subject.
func (p Profile) Related(subject string) []string {
	cats := make([]string, 0, len(p.Categories))
	for c := range p.Categories {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		members := p.Categories[c]
		if !containsFold(members, subject) {
			continue
		}
		out := make([]string, 0, len(members)-1)
		for _, m := range members {
			if !strings.EqualFold(m, subject) {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// Anecdote returns the persona story for subject or the default one.
func (p Profile) Anecdote(subject string) string {
	for k, v := range p.Anecdotes {
		if strings.EqualFold(k, subject) {
			return v
		}
	}
	return p.Anecdotes[defaultAnecdoteKey]
}

// SubjectAt returns the rotation subject at index i modulo the list length.
func (p Profile) SubjectAt(i int) (string, error) {
	n := len(p.Subjects)
	if n == 0 {
		return "", fmt.Errorf("profile %s has no subjects", p.Slug)
	}
	i %= n
	if i < 0 {
		i += n
	}
	return p.Subjects[i], nil
}

func (p Profile) validate() error {
	var problems []string
	if strings.TrimSpace(p.Slug) == "" {
		problems = append(problems, "slug is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if len(p.Subjects) == 0 {
		problems = append(problems, "at least one subject is required")
	}
	if p.Content.Temperature < 0 || p.Content.Temperature > 2 {
		problems = append(problems, "content.temperature must be in [0, 2]")
	}
	if len(problems) > 0 {
		return fmt.Errorf("profile %q: %s", p.Slug, strings.Join(problems, "; "))
	}
	return nil
}

// Registry holds profiles by slug.
type Registry struct {
	bySlug map[string]Profile
}

// Load reads the embedded profiles and then any *.yaml in dir, which may
// override an embedded profile by slug. An empty dir loads only the defaults.
func Load(dir string) (*Registry, error) {
	reg := &Registry{bySlug: map[string]Profile{}}
	if err := reg.loadFS(embedded, "profiles"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(dir) != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("profiles dir: %w", err)
		}
		if err := reg.loadFS(os.DirFS(dir), "."); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (r *Registry) loadFS(fsys fs.FS, root string) error {
	matches, err := fs.Glob(fsys, filepath.ToSlash(filepath.Join(root, "*.yaml")))
	if err != nil {
		return err
	}
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		p, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r.bySlug[strings.ToLower(p.Slug)] = p
	}
	return nil
}

// Parse decodes and validates one YAML profile.
func Parse(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, err
	}
	if err := p.validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

var ErrUnknownProfile = errors.New("unknown profile")

func (r *Registry) Get(slug string) (Profile, error) {
	p, ok := r.bySlug[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, slug)
	}
	return p, nil
}

// Slugs lists registered profiles in order.
func (r *Registry) Slugs() []string {
	out := make([]string, 0, len(r.bySlug))
	for s := range r.bySlug {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
