// Package pii ties PII detection and anonymization together behind a
// small facade used by the CLI and the HTTP API.
package pii

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hannes/pii-mask/pii/detectors"
	"github.com/hannes/pii-mask/pii/operators"
)

// MaskerOptions configures a Masker.
type MaskerOptions struct {
	// ScoreThreshold is the minimum detection confidence.
	ScoreThreshold float64
	// EntityTypes limits detection to these labels. Nil means all.
	EntityTypes []string
	// Operators maps entity types to their anonymization operators.
	Operators map[string]operators.Spec
	// DefaultOperator applies to entity types without an explicit
	// operator. The zero value means replace with a placeholder.
	DefaultOperator operators.Spec
	// Store, when set, keeps fake replacements stable across calls and
	// allows restoring them later. Optional.
	Store MappingStore
	// ExtraDetectors run in addition to the built-in ones (regex,
	// address, morphological NER). Optional.
	ExtraDetectors []detectors.Detector
}

// MaskedResult is the outcome of one anonymization run.
type MaskedResult struct {
	Text         string
	Entities     []detectors.Entity
	Replacements map[string]string // replacement -> original
}

// Masker detects and anonymizes PII in Japanese text.
type Masker struct {
	analyzer    *Analyzer
	generator   *GeneratorService
	store       MappingStore
	entityTypes []string
	specs       map[string]operators.Spec
	defaultSpec operators.Spec
}

// NewMasker builds a masker with the built-in detectors plus any extra
// ones from the options.
func NewMasker(opts MaskerOptions) (*Masker, error) {
	regexDetector, err := detectors.NewRegexDetector(detectors.JapaneseRecognizers())
	if err != nil {
		return nil, fmt.Errorf("building regex detector: %w", err)
	}
	kagomeDetector, err := detectors.NewKagomeDetector()
	if err != nil {
		return nil, fmt.Errorf("building morphological detector: %w", err)
	}

	ds := []detectors.Detector{
		regexDetector,
		detectors.NewAddressDetector(),
		kagomeDetector,
	}
	ds = append(ds, opts.ExtraDetectors...)

	specs := opts.Operators
	if specs == nil {
		specs = map[string]operators.Spec{}
	}
	for entityType, spec := range specs {
		if err := operators.Validate(spec); err != nil {
			return nil, fmt.Errorf("operator for %s: %w", entityType, err)
		}
	}
	if err := operators.Validate(opts.DefaultOperator); err != nil {
		return nil, fmt.Errorf("default operator: %w", err)
	}

	return &Masker{
		analyzer:    NewAnalyzer(ds, opts.ScoreThreshold),
		generator:   NewGeneratorService(),
		store:       opts.Store,
		entityTypes: opts.EntityTypes,
		specs:       specs,
		defaultSpec: opts.DefaultOperator,
	}, nil
}

// Detect returns the PII entities found in text. A nil entityTypes
// falls back to the masker's configured set.
func (m *Masker) Detect(ctx context.Context, text string, entityTypes []string) ([]detectors.Entity, error) {
	if entityTypes == nil {
		entityTypes = m.entityTypes
	}
	return m.analyzer.Analyze(ctx, text, entityTypes)
}

// Anonymize detects PII in text and applies the configured operators.
// Nil entityTypes and ops fall back to the masker's configuration.
func (m *Masker) Anonymize(ctx context.Context, text string, entityTypes []string, ops map[string]operators.Spec) (string, error) {
	result, err := m.AnonymizeWithResult(ctx, text, entityTypes, ops)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// AnonymizeWithResult is Anonymize plus the detected entities and the
// replacement-to-original mapping needed for restoration.
func (m *Masker) AnonymizeWithResult(ctx context.Context, text string, entityTypes []string, ops map[string]operators.Spec) (MaskedResult, error) {
	entities, err := m.Detect(ctx, text, entityTypes)
	if err != nil {
		return MaskedResult{}, err
	}
	if len(entities) == 0 {
		return MaskedResult{Text: text, Replacements: map[string]string{}}, nil
	}

	factory := operators.NewFactory(m.fakeFunc(ctx))
	replacements := make(map[string]string)

	// Apply right to left so earlier offsets stay valid.
	order := make([]detectors.Entity, len(entities))
	copy(order, entities)
	sort.SliceStable(order, func(i, j int) bool { return order[i].StartPos > order[j].StartPos })

	masked := text
	for _, entity := range order {
		spec := m.resolveSpec(entity.Label, ops)
		op, err := factory.Build(spec)
		if err != nil {
			return MaskedResult{}, fmt.Errorf("operator for %s: %w", entity.Label, err)
		}
		replacement, err := op.Apply(entity.Label, entity.Text)
		if err != nil {
			return MaskedResult{}, fmt.Errorf("applying %s to %s: %w", op.Name(), entity.Label, err)
		}
		if replacement != entity.Text && replacement != "" {
			replacements[replacement] = entity.Text
		}
		masked = masked[:entity.StartPos] + replacement + masked[entity.EndPos:]
	}

	return MaskedResult{Text: masked, Entities: entities, Replacements: replacements}, nil
}

// Restore maps replacements in text back to their original spans using
// the mapping from a previous anonymization run.
func (m *Masker) Restore(text string, replacements map[string]string) string {
	for replacement, original := range replacements {
		text = strings.ReplaceAll(text, replacement, original)
	}
	return text
}

// RestoreFromStore restores anonymized text without a per-run mapping:
// it re-detects spans (fake replacements look like real PII) and swaps
// back every span the mapping store knows the original for. Without a
// store the text is returned unchanged.
func (m *Masker) RestoreFromStore(ctx context.Context, text string) (string, error) {
	if m.store == nil {
		return text, nil
	}
	entities, err := m.Detect(ctx, text, nil)
	if err != nil {
		return "", err
	}

	order := make([]detectors.Entity, len(entities))
	copy(order, entities)
	sort.SliceStable(order, func(i, j int) bool { return order[i].StartPos > order[j].StartPos })

	for _, entity := range order {
		original, ok, err := m.store.GetOriginal(ctx, entity.Text)
		if err != nil {
			return "", fmt.Errorf("looking up %s replacement: %w", entity.Label, err)
		}
		if !ok {
			continue
		}
		text = text[:entity.StartPos] + original + text[entity.EndPos:]
	}
	return text, nil
}

// resolveSpec picks the operator spec for an entity type: call-level
// override first, then the configured per-type operator, then the
// default.
func (m *Masker) resolveSpec(label string, ops map[string]operators.Spec) operators.Spec {
	if ops != nil {
		if spec, ok := ops[label]; ok {
			return spec
		}
	}
	if spec, ok := m.specs[label]; ok {
		return spec
	}
	return m.defaultSpec
}

// fakeFunc returns the replacement source for the fake operator. With a
// mapping store configured, replacements are stable across calls.
func (m *Masker) fakeFunc(ctx context.Context) operators.FakeFunc {
	return func(label, original string) string {
		if m.store != nil {
			if dummy, ok, err := m.store.GetDummy(ctx, original); err == nil && ok {
				return dummy
			}
		}
		dummy := m.generator.GenerateReplacement(label, original)
		if m.store != nil {
			// Best effort; generation still succeeds if the store is down.
			_ = m.store.StoreMapping(ctx, original, dummy, label, 0)
		}
		return dummy
	}
}

// Close releases detector resources.
func (m *Masker) Close() error {
	return m.analyzer.Close()
}
