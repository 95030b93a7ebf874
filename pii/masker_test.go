package pii

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannes/pii-mask/pii/detectors"
	"github.com/hannes/pii-mask/pii/operators"
)

func newTestMasker(t *testing.T, opts MaskerOptions) *Masker {
	t.Helper()
	m, err := NewMasker(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMaskerDetect(t *testing.T) {
	m := newTestMasker(t, MaskerOptions{ScoreThreshold: 0.5})
	text := "山田太郎の電話番号は090-1234-5678です。"

	entities, err := m.Detect(context.Background(), text, nil)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	assert.Equal(t, detectors.LabelPerson, entities[0].Label)
	assert.Equal(t, "山田太郎", entities[0].Text)
	assert.Equal(t, detectors.LabelPhoneNumber, entities[1].Label)
	assert.Equal(t, "090-1234-5678", entities[1].Text)
	for _, e := range entities {
		assert.Equal(t, e.Text, text[e.StartPos:e.EndPos])
	}
}

func TestMaskerAnonymizeDefaultPlaceholders(t *testing.T) {
	m := newTestMasker(t, MaskerOptions{ScoreThreshold: 0.5})

	got, err := m.Anonymize(context.Background(), "山田太郎の電話番号は090-1234-5678です。", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "<PERSON>の電話番号は<PHONE_NUMBER>です。", got)
}

func TestMaskerAnonymizeWithOperators(t *testing.T) {
	m := newTestMasker(t, MaskerOptions{
		ScoreThreshold: 0.5,
		Operators: map[string]operators.Spec{
			detectors.LabelPerson: {
				Operator: operators.KindReplace,
				Params:   map[string]any{"new_value": "名無しさん"},
			},
			detectors.LabelPhoneNumber: {
				Operator: operators.KindMask,
				Params:   map[string]any{"masking_char": "*", "chars_to_mask": 8},
			},
		},
	})

	got, err := m.Anonymize(context.Background(), "山田太郎の電話番号は090-1234-5678です。", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "名無しさんの電話番号は********-5678です。", got)
}

func TestMaskerCallLevelOperatorsWin(t *testing.T) {
	m := newTestMasker(t, MaskerOptions{
		ScoreThreshold: 0.5,
		Operators: map[string]operators.Spec{
			detectors.LabelPerson: {Operator: operators.KindRedact},
		},
	})

	got, err := m.Anonymize(context.Background(), "山田太郎です。", nil, map[string]operators.Spec{
		detectors.LabelPerson: {Operator: operators.KindKeep},
	})
	require.NoError(t, err)
	assert.Equal(t, "山田太郎です。", got)
}

func TestMaskerEntityTypeFilter(t *testing.T) {
	m := newTestMasker(t, MaskerOptions{
		ScoreThreshold: 0.5,
		EntityTypes:    []string{detectors.LabelPhoneNumber},
	})

	got, err := m.Anonymize(context.Background(), "山田太郎の電話番号は090-1234-5678です。", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "山田太郎の電話番号は<PHONE_NUMBER>です。", got)
}

func TestMaskerAnonymizeNoPII(t *testing.T) {
	m := newTestMasker(t, MaskerOptions{ScoreThreshold: 0.5})

	text := "今日は良い天気です。"
	got, err := m.Anonymize(context.Background(), text, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestMaskerFakeWithStoreIsStable(t *testing.T) {
	store := NewMemoryMappingStore()
	m := newTestMasker(t, MaskerOptions{
		ScoreThreshold: 0.5,
		Operators: map[string]operators.Spec{
			detectors.LabelEmailAddress: {Operator: operators.KindFake},
		},
		Store: store,
	})

	text := "連絡先は taro@example.com です。"
	first, err := m.AnonymizeWithResult(context.Background(), text, nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, text, first.Text)
	assert.NotContains(t, first.Text, "taro@example.com")

	// The replacement maps back to the original.
	require.Len(t, first.Replacements, 1)
	assert.Equal(t, text, m.Restore(first.Text, first.Replacements))

	// A second run reuses the stored replacement.
	second, err := m.AnonymizeWithResult(context.Background(), text, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)

	dummy, ok, err := store.GetDummy(context.Background(), "taro@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, strings.Contains(first.Text, dummy))
}

func TestMaskerExtraDetector(t *testing.T) {
	extra := &mockDetector{name: "extra", entities: []detectors.Entity{
		{Text: "ひみつ", Label: "SECRET", StartPos: 0, EndPos: 9, Confidence: 0.99},
	}}
	m := newTestMasker(t, MaskerOptions{
		ScoreThreshold: 0.5,
		ExtraDetectors: []detectors.Detector{extra},
	})

	got, err := m.Anonymize(context.Background(), "ひみつの話。", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "<SECRET>の話。", got)
}

func TestMaskerRejectsBadOperatorSpec(t *testing.T) {
	_, err := NewMasker(MaskerOptions{
		Operators: map[string]operators.Spec{
			detectors.LabelPerson: {Operator: "scramble"},
		},
	})
	assert.Error(t, err)
}

func TestMaskerRestoreFromStore(t *testing.T) {
	store := NewMemoryMappingStore()
	m := newTestMasker(t, MaskerOptions{
		ScoreThreshold: 0.5,
		Operators: map[string]operators.Spec{
			detectors.LabelEmailAddress: {Operator: operators.KindFake},
		},
		Store: store,
	})

	text := "メールは taro@gmail.com です。"
	masked, err := m.Anonymize(context.Background(), text, nil, nil)
	require.NoError(t, err)
	require.NotEqual(t, text, masked)

	// No per-run replacement map needed; the store carries the mapping.
	restored, err := m.RestoreFromStore(context.Background(), masked)
	require.NoError(t, err)
	assert.Equal(t, text, restored)
}

func TestMaskerRestoreFromStoreWithoutStore(t *testing.T) {
	m := newTestMasker(t, MaskerOptions{ScoreThreshold: 0.5})
	got, err := m.RestoreFromStore(context.Background(), "そのまま")
	require.NoError(t, err)
	assert.Equal(t, "そのまま", got)
}
