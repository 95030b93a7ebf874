package pii

import (
	"context"
	"fmt"
	"sort"

	"github.com/hannes/pii-mask/pii/detectors"
)

// Analyzer runs a set of detectors over text and post-processes the
// merged results: score thresholding, entity-type filtering, and
// overlap resolution.
type Analyzer struct {
	detectors      []detectors.Detector
	scoreThreshold float64
}

// NewAnalyzer creates an analyzer over the given detectors.
func NewAnalyzer(ds []detectors.Detector, scoreThreshold float64) *Analyzer {
	return &Analyzer{detectors: ds, scoreThreshold: scoreThreshold}
}

// Analyze returns the PII entities found in text. entityTypes limits the
// result to those labels; nil or empty means all.
func (a *Analyzer) Analyze(ctx context.Context, text string, entityTypes []string) ([]detectors.Entity, error) {
	wanted := make(map[string]bool, len(entityTypes))
	for _, t := range entityTypes {
		wanted[t] = true
	}

	var merged []detectors.Entity
	for _, d := range a.detectors {
		output, err := d.Detect(ctx, detectors.DetectorInput{Text: text})
		if err != nil {
			return nil, fmt.Errorf("detector %s: %w", d.GetName(), err)
		}
		for _, e := range output.Entities {
			if e.Confidence < a.scoreThreshold {
				continue
			}
			if len(wanted) > 0 && !wanted[e.Label] {
				continue
			}
			merged = append(merged, e)
		}
	}

	return resolveOverlaps(merged), nil
}

// Close closes all detectors, returning the first error encountered.
func (a *Analyzer) Close() error {
	var firstErr error
	for _, d := range a.detectors {
		if err := d.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", d.GetName(), err)
		}
	}
	return firstErr
}

// resolveOverlaps keeps at most one entity per overlapping region. The
// higher score wins; ties go to the longer span.
func resolveOverlaps(entities []detectors.Entity) []detectors.Entity {
	if len(entities) == 0 {
		return entities
	}
	sorted := make([]detectors.Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		li := sorted[i].EndPos - sorted[i].StartPos
		lj := sorted[j].EndPos - sorted[j].StartPos
		if li != lj {
			return li > lj
		}
		return sorted[i].StartPos < sorted[j].StartPos
	})

	var kept []detectors.Entity
	for _, e := range sorted {
		overlaps := false
		for _, k := range kept {
			if e.Overlaps(k) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, e)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].StartPos < kept[j].StartPos })
	return kept
}
