// Package extensions runs post-capture processing on a successful outcome
// before it is handed to the caller: content digests, previews, OCR and
// script validation.
package extensions

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wudi/scankit/scan"
)

type Phase int

const (
	PhaseInspect Phase = iota
	PhaseEnrich
	PhaseValidate
)

func (p Phase) String() string { return []string{"Inspect", "Enrich", "Validate"}[p] }

// Extension transforms an outcome. Implementations return a new value and
// leave the input untouched.
type Extension interface {
	Name() string
	Phase() Phase
	Priority() int
	Apply(ctx context.Context, out scan.Outcome) (scan.Outcome, error)
}

// Hub runs registered extensions phase by phase, lowest priority first.
type Hub struct {
	mu   sync.RWMutex
	exts map[Phase][]Extension
}

func NewHub() *Hub { return &Hub{exts: make(map[Phase][]Extension)} }

func (h *Hub) Register(ext Extension) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ph := ext.Phase()
	h.exts[ph] = append(h.exts[ph], ext)
	sort.SliceStable(h.exts[ph], func(i, j int) bool { return h.exts[ph][i].Priority() < h.exts[ph][j].Priority() })
}

// Run applies every extension to out. The first error stops the pipeline.
func (h *Hub) Run(ctx context.Context, out scan.Outcome) (scan.Outcome, error) {
	if h == nil {
		return out, nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ph := range []Phase{PhaseInspect, PhaseEnrich, PhaseValidate} {
		for _, e := range h.exts[ph] {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			next, err := e.Apply(ctx, out)
			if err != nil {
				return out, fmt.Errorf("extension %s: %w", e.Name(), err)
			}
			out = next
		}
	}
	return out, nil
}

func (h *Hub) Extensions(phase Phase) []Extension {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Extension(nil), h.exts[phase]...)
}
