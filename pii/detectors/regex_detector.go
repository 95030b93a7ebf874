package detectors

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Context words raise a pattern match by this much, capped at 1.0.
const contextBoost = 0.35

// contextWindow is the number of runes searched around a match for
// context words.
const contextWindow = 30

type compiledPattern struct {
	name  string
	re    *regexp.Regexp
	score float64
}

type compiledRecognizer struct {
	label    string
	patterns []compiledPattern
	context  []string
}

// RegexDetector finds PII entities with scored regular expressions and
// context-word confidence boosting.
type RegexDetector struct {
	recognizers []compiledRecognizer
}

// NewRegexDetector compiles the given recognizer specs. It returns an
// error if any pattern fails to compile.
func NewRegexDetector(specs []RecognizerSpec) (*RegexDetector, error) {
	recognizers := make([]compiledRecognizer, 0, len(specs))
	for _, spec := range specs {
		rec := compiledRecognizer{label: spec.Label, context: spec.Context}
		for _, p := range spec.Patterns {
			re, err := regexp.Compile(p.Regex)
			if err != nil {
				return nil, fmt.Errorf("pattern %q for %s: %w", p.Name, spec.Label, err)
			}
			rec.patterns = append(rec.patterns, compiledPattern{name: p.Name, re: re, score: p.Score})
		}
		recognizers = append(recognizers, rec)
	}
	return &RegexDetector{recognizers: recognizers}, nil
}

// GetName returns the name of this detector.
func (r *RegexDetector) GetName() string {
	return DetectorNameRegex
}

// Detect runs every pattern over the input and returns the matches with
// context-adjusted confidence.
func (r *RegexDetector) Detect(ctx context.Context, input DetectorInput) (DetectorOutput, error) {
	var entities []Entity

	for _, rec := range r.recognizers {
		for _, p := range rec.patterns {
			matches := p.re.FindAllStringIndex(input.Text, -1)
			for _, match := range matches {
				startPos, endPos := match[0], match[1]
				score := p.score
				if hasContextWord(input.Text, startPos, endPos, rec.context) {
					score += contextBoost
					if score > 1.0 {
						score = 1.0
					}
				}
				entities = append(entities, Entity{
					Text:       input.Text[startPos:endPos],
					Label:      rec.label,
					StartPos:   startPos,
					EndPos:     endPos,
					Confidence: score,
				})
			}
		}
	}

	return DetectorOutput{Text: input.Text, Entities: entities}, nil
}

// hasContextWord reports whether any of the context words appears within
// contextWindow runes before or after the match.
func hasContextWord(text string, start, end int, context []string) bool {
	if len(context) == 0 {
		return false
	}
	before := text[:start]
	for i := 0; i < contextWindow && len(before) > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(before)
		before = before[:len(before)-size]
	}
	after := text[end:]
	cut := len(after)
	for i, n := 0, 0; i < len(after); n++ {
		if n == contextWindow {
			cut = i
			break
		}
		_, size := utf8.DecodeRuneInString(after[i:])
		i += size
	}
	window := text[len(before):start] + text[end:end+cut]
	for _, word := range context {
		if word != "" && strings.Contains(window, word) {
			return true
		}
	}
	return false
}

// Close implements the Detector interface.
func (r *RegexDetector) Close() error {
	return nil
}
