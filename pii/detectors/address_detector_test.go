package detectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detectAddresses(t *testing.T, text string) []Entity {
	t.Helper()
	d := NewAddressDetector()
	out, err := d.Detect(context.Background(), DetectorInput{Text: text})
	require.NoError(t, err)
	return out.Entities
}

func TestAddressDetectorPrefectureCity(t *testing.T) {
	text := "住所は東京都千代田区丸の内1-1-1です。"
	entities := detectAddresses(t, text)
	require.NotEmpty(t, entities)

	var best Entity
	for _, e := range entities {
		assert.Equal(t, LabelAddress, e.Label)
		assert.Equal(t, e.Text, text[e.StartPos:e.EndPos])
		if e.Confidence > best.Confidence {
			best = e
		}
	}
	assert.Equal(t, "東京都千代田区", best.Text)
	assert.Equal(t, 0.95, best.Confidence)
}

func TestAddressDetectorExpandsTrailingBlock(t *testing.T) {
	text := "住所：東京都港区六本木6-10-1ヒルズ。"
	entities := detectAddresses(t, text)
	require.Len(t, entities, 1)
	assert.Equal(t, "東京都港区六本木6-10-1ヒルズ", entities[0].Text)
	assert.Equal(t, 0.95, entities[0].Confidence)
}

func TestAddressDetectorWithoutContext(t *testing.T) {
	entities := detectAddresses(t, "東京都新宿区に行きました。")
	require.NotEmpty(t, entities)
	assert.Equal(t, "東京都新宿区", entities[0].Text)
	assert.Equal(t, 0.8, entities[0].Confidence)
}

func TestAddressDetectorPostalMarker(t *testing.T) {
	entities := detectAddresses(t, "〒100-0001")
	require.Len(t, entities, 1)
	assert.Equal(t, "〒100-0001", entities[0].Text)
}

func TestAddressDetectorIgnoresOtherPII(t *testing.T) {
	assert.Empty(t, detectAddresses(t, "2023年1月1日"))
	assert.Empty(t, detectAddresses(t, "090-1234-5678"))
	assert.Empty(t, detectAddresses(t, "マイナンバーは123456789012です"))
}

func TestIsValidAddress(t *testing.T) {
	d := NewAddressDetector()
	assert.True(t, d.isValidAddress("東京都千代田区"))
	assert.True(t, d.isValidAddress("西新宿2丁目"))
	assert.False(t, d.isValidAddress("100-0001"))
	assert.False(t, d.isValidAddress("2023年1月1日"))
	assert.False(t, d.isValidAddress("123456789012"))
}

func TestRemoveOverlapping(t *testing.T) {
	entities := []Entity{
		{Text: "東京都港区", Label: LabelAddress, StartPos: 0, EndPos: 15, Confidence: 0.8},
		{Text: "東京都港区六本木", Label: LabelAddress, StartPos: 0, EndPos: 24, Confidence: 0.95},
		{Text: "別の住所", Label: LabelAddress, StartPos: 50, EndPos: 62, Confidence: 0.9},
	}
	filtered := removeOverlapping(entities)
	require.Len(t, filtered, 2)
	// Sorted by position, the contained lower-scored span dropped.
	assert.Equal(t, "東京都港区六本木", filtered[0].Text)
	assert.Equal(t, "別の住所", filtered[1].Text)
}
