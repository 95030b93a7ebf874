package detectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// personExclusions are words the IPA dictionary occasionally tags as
// names but that are clearly not, taken from the original tuning.
var personExclusions = []string{
	"電話", "電話番号", "携帯", "メール", "メールアドレス", "住所", "郵便番号",
	"会社", "学校", "大学", "病院", "銀行", "支店", "本店", "本社",
	"です", "ます", "ました", "ください", "なし", "あり",
}

// honorifics directly after a name raise its confidence.
var honorifics = []string{"さん", "氏", "君", "様", "殿", "先生", "教授", "博士"}

// KagomeDetector finds person and location names using morphological
// analysis with the IPA dictionary. Proper-noun part-of-speech tags
// (人名 for personal names, 地域 for regions) drive the detection.
type KagomeDetector struct {
	tokenizer *tokenizer.Tokenizer
}

// NewKagomeDetector builds the morphological detector.
func NewKagomeDetector() (*KagomeDetector, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to build kagome tokenizer: %w", err)
	}
	return &KagomeDetector{tokenizer: t}, nil
}

// GetName returns the name of this detector.
func (d *KagomeDetector) GetName() string {
	return DetectorNameKagome
}

// Detect tokenizes the input and groups consecutive proper-noun tokens
// into PERSON and LOCATION entities.
func (d *KagomeDetector) Detect(ctx context.Context, input DetectorInput) (DetectorOutput, error) {
	text := input.Text
	tokens := d.tokenizer.Analyze(text, tokenizer.Normal)

	// Kagome reports token positions as rune indices; entities carry
	// byte offsets, so build a rune-to-byte table once.
	runeToByte := make([]int, 0, len(text)+1)
	for i := range text {
		runeToByte = append(runeToByte, i)
	}
	runeToByte = append(runeToByte, len(text))

	var entities []Entity
	i := 0
	for i < len(tokens) {
		kind := properNounKind(tokens[i])
		if kind == "" {
			i++
			continue
		}
		j := i + 1
		for j < len(tokens) && properNounKind(tokens[j]) == kind && tokens[j].Start == tokens[j-1].End {
			j++
		}
		startRune, endRune := tokens[i].Start, tokens[j-1].End
		start, end := runeToByte[startRune], runeToByte[endRune]
		span := text[start:end]

		switch kind {
		case "person":
			if isValidPersonName(span) {
				score := 0.85
				if followedByHonorific(text, end) {
					score = 0.95
				}
				entities = append(entities, Entity{
					Text:       span,
					Label:      LabelPerson,
					StartPos:   start,
					EndPos:     end,
					Confidence: score,
				})
			}
		case "region":
			entities = append(entities, Entity{
				Text:       span,
				Label:      LabelLocation,
				StartPos:   start,
				EndPos:     end,
				Confidence: 0.75,
			})
		}
		i = j
	}

	return DetectorOutput{Text: text, Entities: entities}, nil
}

// properNounKind classifies a token as part of a personal name, a
// region name, or neither.
func properNounKind(t tokenizer.Token) string {
	features := t.Features()
	if len(features) < 3 || features[0] != "名詞" || features[1] != "固有名詞" {
		return ""
	}
	switch features[2] {
	case "人名":
		return "person"
	case "地域":
		return "region"
	}
	return ""
}

// isValidPersonName filters obvious non-names.
func isValidPersonName(span string) bool {
	trimmed := strings.TrimSpace(span)
	if len([]rune(trimmed)) < 2 {
		return false
	}
	for _, word := range personExclusions {
		if strings.Contains(trimmed, word) {
			return false
		}
	}
	return true
}

// followedByHonorific reports whether an honorific suffix starts at the
// given byte offset.
func followedByHonorific(text string, offset int) bool {
	rest := text[offset:]
	for _, h := range honorifics {
		if strings.HasPrefix(rest, h) {
			return true
		}
	}
	return false
}

// Close implements the Detector interface.
func (d *KagomeDetector) Close() error {
	return nil
}
