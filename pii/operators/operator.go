// Package operators implements the anonymization transformations that
// are applied to detected PII spans.
package operators

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Operator kinds accepted in configuration.
const (
	KindReplace = "replace"
	KindMask    = "mask"
	KindRedact  = "redact"
	KindHash    = "hash"
	KindKeep    = "keep"
	KindFake    = "fake"
)

// Spec is the declarative form of an operator: a kind plus its
// kind-specific parameters, as written in masking_config.yaml.
type Spec struct {
	Operator string         `yaml:"operator" json:"operator"`
	Params   map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// Operator transforms the text of one detected entity. The label is the
// entity type of the span being anonymized.
type Operator interface {
	Name() string
	Apply(label, text string) (string, error)
}

// FakeFunc produces a realistic replacement for the given entity label
// and original span.
type FakeFunc func(label, original string) string

// Factory builds operators from specs. The fake operator needs a
// replacement source, which callers inject here.
type Factory struct {
	fake FakeFunc
}

// NewFactory returns a factory. fake may be nil, in which case building
// a fake operator fails.
func NewFactory(fake FakeFunc) *Factory {
	return &Factory{fake: fake}
}

// Build validates the spec and returns a ready operator.
func (f *Factory) Build(spec Spec) (Operator, error) {
	switch spec.Operator {
	case KindReplace, "":
		newValue, err := stringParam(spec.Params, "new_value", "")
		if err != nil {
			return nil, err
		}
		return &replaceOperator{newValue: newValue}, nil
	case KindMask:
		maskingChar, err := stringParam(spec.Params, "masking_char", "*")
		if err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(maskingChar) != 1 {
			return nil, fmt.Errorf("masking_char must be a single character, got %q", maskingChar)
		}
		charsToMask, err := intParam(spec.Params, "chars_to_mask", -1)
		if err != nil {
			return nil, err
		}
		if _, present := spec.Params["chars_to_mask"]; present && charsToMask < 0 {
			return nil, fmt.Errorf("chars_to_mask must be non-negative, got %d", charsToMask)
		}
		fromEnd, err := boolParam(spec.Params, "from_end", false)
		if err != nil {
			return nil, err
		}
		char, _ := utf8.DecodeRuneInString(maskingChar)
		return &maskOperator{maskingChar: char, charsToMask: charsToMask, fromEnd: fromEnd}, nil
	case KindRedact:
		return &redactOperator{}, nil
	case KindHash:
		hashType, err := stringParam(spec.Params, "hash_type", "sha256")
		if err != nil {
			return nil, err
		}
		h, err := hasherFor(hashType)
		if err != nil {
			return nil, err
		}
		return &hashOperator{hashType: hashType, newHash: h}, nil
	case KindKeep:
		return &keepOperator{}, nil
	case KindFake:
		if f.fake == nil {
			return nil, fmt.Errorf("fake operator requires a replacement generator")
		}
		return &fakeOperator{fn: f.fake}, nil
	}
	return nil, fmt.Errorf("unknown operator kind %q", spec.Operator)
}

// Validate checks a spec without needing a fake replacement source.
func Validate(spec Spec) error {
	f := NewFactory(func(string, string) string { return "" })
	_, err := f.Build(spec)
	return err
}

func stringParam(params map[string]any, key, fallback string) (string, error) {
	v, ok := params[key]
	if !ok {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string, got %T", key, v)
	}
	return s, nil
}

func intParam(params map[string]any, key string, fallback int) (int, error) {
	v, ok := params[key]
	if !ok {
		return fallback, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		if n > uint64(math.MaxInt) {
			return 0, fmt.Errorf("parameter %q out of range: %d", key, n)
		}
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("parameter %q must be an integer, got %v", key, n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("parameter %q must be an integer, got %T", key, v)
}

func boolParam(params map[string]any, key string, fallback bool) (bool, error) {
	v, ok := params[key]
	if !ok {
		return fallback, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q must be a boolean, got %T", key, v)
	}
	return b, nil
}
