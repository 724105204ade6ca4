package candidate

import "fmt"

// Registry is the ordered, read-only list of candidates. Order matters: it
// breaks ties in the final ranking.
type Registry struct {
	candidates []Profile
	index      map[string]int
}

// NewRegistry validates and indexes the profiles.
func NewRegistry(profiles []Profile) (*Registry, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("registry must contain at least one candidate")
	}

	r := &Registry{
		candidates: make([]Profile, len(profiles)),
		index:      make(map[string]int, len(profiles)),
	}
	for i, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.index[p.Name]; dup {
			return nil, fmt.Errorf("duplicate candidate %q", p.Name)
		}
		p.Founders = append([]string(nil), p.Founders...)
		r.candidates[i] = p
		r.index[p.Name] = i
	}
	return r, nil
}

// Len returns the number of candidates.
func (r *Registry) Len() int {
	return len(r.candidates)
}

// At returns the candidate at registry position i.
func (r *Registry) At(i int) *Profile {
	return &r.candidates[i]
}

// All returns a copy of the candidates in registry order.
func (r *Registry) All() []Profile {
	out := make([]Profile, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Get looks a candidate up by name.
func (r *Registry) Get(name string) (Profile, error) {
	i, ok := r.index[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownCandidate, name)
	}
	return r.candidates[i], nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Names lists candidate names in registry order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.candidates))
	for i, p := range r.candidates {
		out[i] = p.Name
	}
	return out
}

// FounderTable is the read-only founder lookup.
type FounderTable struct {
	byName map[string]Founder
}

// NewFounderTable indexes founders by name.
func NewFounderTable(founders []Founder) (*FounderTable, error) {
	t := &FounderTable{byName: make(map[string]Founder, len(founders))}
	for _, f := range founders {
		if f.Name == "" {
			return nil, fmt.Errorf("founder name is required")
		}
		if _, dup := t.byName[f.Name]; dup {
			return nil, fmt.Errorf("duplicate founder %q", f.Name)
		}
		t.byName[f.Name] = f
	}
	return t, nil
}

// Lookup returns the founder profile when known.
func (t *FounderTable) Lookup(name string) (Founder, bool) {
	if t == nil {
		return Founder{}, false
	}
	f, ok := t.byName[name]
	return f, ok
}

// Len returns the number of founders.
func (t *FounderTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byName)
}
