package operators

import (
	"crypto/md5" // #nosec G501 - md5 kept for compatibility with existing configs
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
)

// replaceOperator substitutes the span with a fixed value. With no
// new_value configured it falls back to an <ENTITY_TYPE> placeholder.
type replaceOperator struct {
	newValue string
}

func (o *replaceOperator) Name() string { return KindReplace }

func (o *replaceOperator) Apply(label, text string) (string, error) {
	if o.newValue == "" {
		return "<" + label + ">", nil
	}
	return o.newValue, nil
}

// maskOperator overwrites part of the span with a masking character.
// charsToMask < 0 means the whole span.
type maskOperator struct {
	maskingChar rune
	charsToMask int
	fromEnd     bool
}

func (o *maskOperator) Name() string { return KindMask }

func (o *maskOperator) Apply(label, text string) (string, error) {
	runes := []rune(text)
	n := o.charsToMask
	if n < 0 || n > len(runes) {
		n = len(runes)
	}
	if o.fromEnd {
		for i := len(runes) - n; i < len(runes); i++ {
			runes[i] = o.maskingChar
		}
	} else {
		for i := 0; i < n; i++ {
			runes[i] = o.maskingChar
		}
	}
	return string(runes), nil
}

// redactOperator removes the span entirely.
type redactOperator struct{}

func (o *redactOperator) Name() string { return KindRedact }

func (o *redactOperator) Apply(label, text string) (string, error) {
	return "", nil
}

// hashOperator replaces the span with the hex digest of its content.
type hashOperator struct {
	hashType string
	newHash  func() hash.Hash
}

func (o *hashOperator) Name() string { return KindHash }

func (o *hashOperator) Apply(label, text string) (string, error) {
	h := o.newHash()
	if _, err := h.Write([]byte(text)); err != nil {
		return "", fmt.Errorf("hashing span: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hasherFor(hashType string) (func() hash.Hash, error) {
	switch hashType {
	case "sha256":
		return sha256.New, nil
	case "sha512":
		return sha512.New, nil
	case "md5":
		// #nosec G401 - md5 kept for compatibility with existing configs
		return md5.New, nil
	}
	return nil, fmt.Errorf("unknown hash_type %q", hashType)
}

// keepOperator leaves the span untouched.
type keepOperator struct{}

func (o *keepOperator) Name() string { return KindKeep }

func (o *keepOperator) Apply(label, text string) (string, error) {
	return text, nil
}

// fakeOperator swaps the span for generated dummy data.
type fakeOperator struct {
	fn FakeFunc
}

func (o *fakeOperator) Name() string { return KindFake }

func (o *fakeOperator) Apply(label, text string) (string, error) {
	return o.fn(label, text), nil
}
