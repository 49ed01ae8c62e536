package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/nbformat"
	"github.com/aretw0/quire/pkg/ports"
)

type scrubMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewScrubMiddleware creates a middleware that masks sensitive content
// before snapshots reach the store. Output text matching any pattern is
// replaced with a mask, as are metadata values whose keys match. The
// in-memory notebook handed to Save is never modified.
func NewScrubMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &scrubMiddleware{next: next, patterns: patterns}
	}
}

const mask = "***"

func (m *scrubMiddleware) Save(ctx context.Context, id string, nb *nbformat.Notebook) error {
	// Deep clone to avoid side effects on the notebook the document still
	// holds in memory.
	cloned := *nb
	cloned.Metadata = deepCopyMap(nb.Metadata)
	maskMap(cloned.Metadata, m.patterns)

	cloned.Cells = make([]nbformat.Record, len(nb.Cells))
	for i, rec := range nb.Cells {
		cloned.Cells[i] = rec
		cloned.Cells[i].Metadata = deepCopyMap(rec.Metadata)
		maskMap(cloned.Cells[i].Metadata, m.patterns)

		if rec.Outputs == nil {
			continue
		}
		outputs := make([]domain.Output, len(rec.Outputs))
		for j, output := range rec.Outputs {
			outputs[j] = m.scrubOutput(output)
		}
		cloned.Cells[i].Outputs = outputs
	}

	return m.next.Save(ctx, id, &cloned)
}

func (m *scrubMiddleware) Load(ctx context.Context, id string) (*nbformat.Notebook, error) {
	return m.next.Load(ctx, id)
}

func (m *scrubMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *scrubMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// scrubOutput masks string values inside one output record when they match
// a pattern. Non-string payloads pass through untouched.
func (m *scrubMiddleware) scrubOutput(output domain.Output) domain.Output {
	cloned := make(domain.Output, len(output))
	for k, v := range output {
		if s, ok := v.(string); ok && m.matchesAny(s) {
			cloned[k] = mask
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			copied := deepCopyMap(sub)
			m.maskValues(copied)
			cloned[k] = copied
			continue
		}
		cloned[k] = v
	}
	return cloned
}

func (m *scrubMiddleware) matchesAny(s string) bool {
	for _, p := range m.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func (m *scrubMiddleware) maskValues(values map[string]any) {
	for k, v := range values {
		if s, ok := v.(string); ok && m.matchesAny(s) {
			values[k] = mask
		}
		if sub, ok := v.(map[string]any); ok {
			m.maskValues(sub)
		}
	}
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v // shallow copy of value
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = mask
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
