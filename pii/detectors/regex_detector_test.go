package detectors

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detect(t *testing.T, text string) []Entity {
	t.Helper()
	d, err := NewRegexDetector(JapaneseRecognizers())
	require.NoError(t, err)
	out, err := d.Detect(context.Background(), DetectorInput{Text: text})
	require.NoError(t, err)
	assert.Equal(t, text, out.Text)
	return out.Entities
}

func findByLabel(entities []Entity, label string) []Entity {
	var found []Entity
	for _, e := range entities {
		if e.Label == label {
			found = append(found, e)
		}
	}
	return found
}

func TestRegexDetectorPhoneWithContext(t *testing.T) {
	text := "電話番号は090-1234-5678です"
	entities := findByLabel(detect(t, text), LabelPhoneNumber)
	require.NotEmpty(t, entities)

	var best Entity
	for _, e := range entities {
		if e.Confidence > best.Confidence {
			best = e
		}
	}
	assert.Equal(t, "090-1234-5678", best.Text)
	assert.Equal(t, best.Text, text[best.StartPos:best.EndPos])
	// 0.8 base plus the context boost, capped at 1.0.
	assert.Equal(t, 1.0, best.Confidence)
}

func TestRegexDetectorPhoneWithoutContext(t *testing.T) {
	entities := findByLabel(detect(t, "090-1234-5678"), LabelPhoneNumber)
	require.NotEmpty(t, entities)
	for _, e := range entities {
		assert.Equal(t, 0.8, e.Confidence)
	}
}

func TestRegexDetectorContextOutsideWindow(t *testing.T) {
	// The context word sits more than 30 runes before the match, so no
	// boost applies.
	text := "電話" + strings.Repeat("あ", 35) + "090-1234-5678"
	entities := findByLabel(detect(t, text), LabelPhoneNumber)
	require.NotEmpty(t, entities)
	for _, e := range entities {
		assert.Equal(t, 0.8, e.Confidence)
	}
}

func TestRegexDetectorEmail(t *testing.T) {
	entities := findByLabel(detect(t, "メール: taro.yamada@example.com"), LabelEmailAddress)
	require.Len(t, entities, 1)
	assert.Equal(t, "taro.yamada@example.com", entities[0].Text)
	assert.Equal(t, 1.0, entities[0].Confidence)
}

func TestRegexDetectorMyNumber(t *testing.T) {
	entities := findByLabel(detect(t, "マイナンバーは1234-5678-9012です"), LabelJPMyNumber)
	require.NotEmpty(t, entities)
	assert.Equal(t, "1234-5678-9012", entities[0].Text)
	assert.InDelta(t, 0.95, entities[0].Confidence, 1e-9)
}

func TestRegexDetectorPostalCode(t *testing.T) {
	entities := findByLabel(detect(t, "〒100-0001に送ってください"), LabelJPPostalCode)
	require.NotEmpty(t, entities)

	var marked *Entity
	for i, e := range entities {
		if strings.HasPrefix(e.Text, "〒") {
			marked = &entities[i]
		}
	}
	require.NotNil(t, marked)
	assert.Equal(t, "〒100-0001", marked.Text)
	assert.Equal(t, 0.85, marked.Confidence)
}

func TestRegexDetectorEraDate(t *testing.T) {
	entities := findByLabel(detect(t, "生年月日：昭和60年3月15日"), LabelBirthdate)
	require.NotEmpty(t, entities)
	assert.Equal(t, "昭和60年3月15日", entities[0].Text)
	assert.InDelta(t, 1.0, entities[0].Confidence, 1e-9)
}

func TestRegexDetectorCreditCard(t *testing.T) {
	entities := findByLabel(detect(t, "カード番号 4111-1111-1111-1111"), LabelCreditCard)
	require.NotEmpty(t, entities)
	assert.Equal(t, "4111-1111-1111-1111", entities[0].Text)
}

func TestRegexDetectorURL(t *testing.T) {
	entities := findByLabel(detect(t, "サイトは https://example.com/profile です"), LabelURL)
	require.Len(t, entities, 1)
	assert.Equal(t, "https://example.com/profile", entities[0].Text)
}

func TestRegexDetectorLowScoreWithoutContext(t *testing.T) {
	// A bare 7-digit run is only a weak bank account candidate.
	entities := findByLabel(detect(t, "1234567"), LabelJPBankAccount)
	require.Len(t, entities, 1)
	assert.Equal(t, 0.25, entities[0].Confidence)

	entities = findByLabel(detect(t, "口座番号は1234567です"), LabelJPBankAccount)
	require.Len(t, entities, 1)
	assert.InDelta(t, 0.6, entities[0].Confidence, 1e-9)
}

func TestRegexDetectorNoMatches(t *testing.T) {
	assert.Empty(t, detect(t, "今日は良い天気です。"))
}

func TestNewRegexDetectorBadPattern(t *testing.T) {
	_, err := NewRegexDetector([]RecognizerSpec{{
		Label:    LabelPerson,
		Patterns: []Pattern{{Name: "broken", Regex: "([", Score: 0.5}},
	}})
	assert.Error(t, err)
}

func TestRegexDetectorDateTime(t *testing.T) {
	entities := findByLabel(detect(t, "午後14:30に集合です"), LabelDateTime)
	require.NotEmpty(t, entities)
	assert.Equal(t, "14:30", entities[0].Text)
	assert.InDelta(t, 0.95, entities[0].Confidence, 1e-9)

	entities = findByLabel(detect(t, "15時30分でした"), LabelDateTime)
	require.NotEmpty(t, entities)
	assert.Equal(t, "15時30分", entities[0].Text)
	assert.Equal(t, 0.6, entities[0].Confidence)
}
