package persona

import (
	"math/rand"
	"sync"

	"github.com/vozlabs/pulso/internal/types"
)

// Registry is the read-only persona roster plus the active-set draw. The
// roster never changes after construction; only the random source is guarded.
type Registry struct {
	personas []types.Persona
	byID     map[string]*types.Persona

	// visible marks providers allowed to produce room output. Monitor-only
	// providers are excluded from every draw.
	visible map[string]bool

	fractionMin float64
	fractionMax float64
	floor       int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRegistry builds a Registry from a catalog. visibleProviders lists the
// provider names that may produce visible output.
func NewRegistry(catalog *Catalog, visibleProviders []string, fractionMin, fractionMax float64, floor int, seed int64) *Registry {
	byID := make(map[string]*types.Persona, len(catalog.Personas))
	for i := range catalog.Personas {
		byID[catalog.Personas[i].ID] = &catalog.Personas[i]
	}
	visible := make(map[string]bool, len(visibleProviders))
	for _, name := range visibleProviders {
		visible[name] = true
	}
	if fractionMin <= 0 {
		fractionMin = 0.30
	}
	if fractionMax < fractionMin {
		fractionMax = fractionMin
	}
	if floor <= 0 {
		floor = 1
	}
	return &Registry{
		personas:    catalog.Personas,
		byID:        byID,
		visible:     visible,
		fractionMin: fractionMin,
		fractionMax: fractionMax,
		floor:       floor,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Get returns the persona with the given id, or nil.
func (r *Registry) Get(id string) *types.Persona {
	return r.byID[id]
}

// SelectActive draws a fresh active set for a room category: scope filter,
// visible-provider filter, then a randomized 30-40% slice with a floor.
// The result is non-empty whenever any persona is eligible.
func (r *Registry) SelectActive(category string) []string {
	eligible := make([]string, 0, len(r.personas))
	for i := range r.personas {
		p := &r.personas[i]
		if !p.InScope(category) {
			continue
		}
		if !r.speakable(p) {
			continue
		}
		eligible = append(eligible, p.ID)
	}
	if len(eligible) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fraction := r.fractionMin + r.rng.Float64()*(r.fractionMax-r.fractionMin)
	n := int(float64(len(eligible)) * fraction)
	if n < r.floor {
		n = r.floor
	}
	if n > len(eligible) {
		n = len(eligible)
	}
	if n < 1 {
		n = 1
	}

	r.rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	return eligible[:n]
}

// speakable reports whether at least one provider in the persona's affinity
// list may produce visible output.
func (r *Registry) speakable(p *types.Persona) bool {
	for _, name := range p.ProviderAffinity {
		if r.visible[name] {
			return true
		}
	}
	return false
}

// GroupPeer reports whether the active set contains another member of the
// persona's group. Group personas only converse within their group, so one
// without a peer in the set has nobody to talk to.
func (r *Registry) GroupPeer(active []string, id string) bool {
	p := r.byID[id]
	if p == nil || p.GroupID == "" {
		return false
	}
	for _, other := range active {
		if other == id {
			continue
		}
		if o := r.byID[other]; o != nil && o.GroupID == p.GroupID {
			return true
		}
	}
	return false
}

// HumanCandidates filters an active set down to personas allowed to answer a
// human.
func (r *Registry) HumanCandidates(active []string) []string {
	out := make([]string, 0, len(active))
	for _, id := range active {
		if p := r.byID[id]; p != nil && p.TalksToHumans() {
			out = append(out, id)
		}
	}
	return out
}
