package detectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detectNames(t *testing.T, text string) []Entity {
	t.Helper()
	d, err := NewKagomeDetector()
	require.NoError(t, err)
	out, err := d.Detect(context.Background(), DetectorInput{Text: text})
	require.NoError(t, err)
	return out.Entities
}

func TestKagomeDetectorPersonWithHonorific(t *testing.T) {
	text := "山田太郎さんは東京に住んでいます。"
	entities := detectNames(t, text)
	require.NotEmpty(t, entities)

	persons := findByLabel(entities, LabelPerson)
	require.Len(t, persons, 1)
	assert.Equal(t, "山田太郎", persons[0].Text)
	assert.Equal(t, persons[0].Text, text[persons[0].StartPos:persons[0].EndPos])
	assert.Equal(t, 0.95, persons[0].Confidence)

	locations := findByLabel(entities, LabelLocation)
	require.Len(t, locations, 1)
	assert.Equal(t, "東京", locations[0].Text)
	assert.Equal(t, 0.75, locations[0].Confidence)
}

func TestKagomeDetectorPersonWithoutHonorific(t *testing.T) {
	persons := findByLabel(detectNames(t, "佐藤花子が来た。"), LabelPerson)
	require.Len(t, persons, 1)
	assert.Equal(t, "佐藤花子", persons[0].Text)
	assert.Equal(t, 0.85, persons[0].Confidence)
}

func TestKagomeDetectorLocation(t *testing.T) {
	locations := findByLabel(detectNames(t, "大阪から来ました。"), LabelLocation)
	require.Len(t, locations, 1)
	assert.Equal(t, "大阪", locations[0].Text)
}

func TestKagomeDetectorNoProperNouns(t *testing.T) {
	assert.Empty(t, detectNames(t, "これはテストです。"))
}

func TestIsValidPersonName(t *testing.T) {
	assert.True(t, isValidPersonName("山田太郎"))
	assert.False(t, isValidPersonName("山"))
	assert.False(t, isValidPersonName("電話番号"))
	assert.False(t, isValidPersonName(" "))
}

func TestFollowedByHonorific(t *testing.T) {
	text := "山田さん"
	assert.True(t, followedByHonorific(text, len("山田")))
	assert.False(t, followedByHonorific("山田です", len("山田")))
}
