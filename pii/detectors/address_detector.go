package detectors

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// prefectures lists all 47 Japanese prefectures, used to anchor address
// patterns and span expansion.
var prefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県",
	"静岡県", "愛知県", "三重県", "滋賀県", "京都府", "大阪府", "兵庫県",
	"奈良県", "和歌山県", "鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県", "福岡県", "佐賀県", "長崎県",
	"熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

// addressKeywords are words that commonly appear inside an address.
var addressKeywords = []string{
	"市", "区", "町", "村", "郡", "丁目", "番地", "号",
	"マンション", "アパート", "団地", "住宅", "荘", "ハイツ", "コーポ",
	"ビル", "タワー", "コート", "号室", "室", "階",
}

// addressContextWords mark text that introduces an address.
var addressContextWords = []string{
	"住所", "自宅", "所在地", "住所は", "住所：", "自宅は", "自宅：", "所在地は", "所在地：",
}

// AddressDetector finds Japanese addresses using prefecture-anchored
// patterns, address context words, and span expansion around matches.
type AddressDetector struct {
	patterns      []*regexp.Regexp
	contextRe     *regexp.Regexp
	blockNumberRe *regexp.Regexp
	featureRe     *regexp.Regexp
	delimiterRe   *regexp.Regexp
	lineBreakRe   *regexp.Regexp
	blockXYZRe    *regexp.Regexp
	notAddressRes []*regexp.Regexp
}

// NewAddressDetector builds the address detector.
func NewAddressDetector() *AddressDetector {
	prefAlt := strings.Join(prefectures, "|")
	raw := []string{
		// Prefecture followed by a municipality.
		`(?:` + prefAlt + `)(?:[一-龯々ぁ-んァ-ン0-9０-９a-zA-Z\-－・\s]{2,30}[市区町村郡])`,
		// Postal code marker.
		`〒\d{3}[-−]?\d{4}`,
		// Chōme / banchi style block expressions.
		`[一-龯々ぁ-んァ-ン0-9０-９]+(?:丁目|番町|条|番地|番|通|町目|条通|の町|横町)(?:[-−0-9０-９一二三四五六七八九十百千]+)?`,
	}
	patterns := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		patterns = append(patterns, regexp.MustCompile(p))
	}
	notAddress := []string{
		`^\d{3}-\d{4}$`,
		`^\d{4}年\d{1,2}月\d{1,2}日$`,
		`^\d{11,12}$`,
		`^\d{2,4}-\d{2,4}-\d{4}$`,
	}
	notAddressRes := make([]*regexp.Regexp, 0, len(notAddress))
	for _, p := range notAddress {
		notAddressRes = append(notAddressRes, regexp.MustCompile(p))
	}
	return &AddressDetector{
		patterns:      patterns,
		contextRe:     regexp.MustCompile(strings.Join(addressContextWords, "|")),
		blockNumberRe: regexp.MustCompile(`[-−0-9０-９一二三四五六七八九十]+`),
		featureRe:     regexp.MustCompile(`[0-9０-９一二三四五六七八九十]+(?:丁目|番地|号|番|条|町目|区|市)`),
		delimiterRe:   regexp.MustCompile(`[。、.，,；;:\n\r]`),
		lineBreakRe:   regexp.MustCompile(`[\n\r]`),
		blockXYZRe:    regexp.MustCompile(`[0-9０-９]{1,3}[-－][0-9０-９]{1,3}[-－][0-9０-９]{1,3}`),
		notAddressRes: notAddressRes,
	}
}

// GetName returns the name of this detector.
func (d *AddressDetector) GetName() string {
	return DetectorNameAddress
}

// Detect returns address spans found in the input text.
func (d *AddressDetector) Detect(ctx context.Context, input DetectorInput) (DetectorOutput, error) {
	text := input.Text
	var entities []Entity

	contextSpans := d.contextRe.FindAllStringIndex(text, -1)

	// Candidates introduced by a context word run to the next line break
	// or the next context word.
	for _, span := range contextSpans {
		rest := text[span[1]:]
		end := len(rest)
		if m := d.lineBreakRe.FindStringIndex(rest); m != nil {
			end = m[0]
		}
		if m := d.contextRe.FindStringIndex(rest); m != nil && m[0] < end {
			end = m[0]
		}
		candidate := strings.TrimSpace(rest[:end])
		if len([]rune(candidate)) > 4 && d.hasAddressFeatures(candidate) {
			start := span[1] + strings.Index(rest[:end], candidate)
			entities = append(entities, Entity{
				Text:       candidate,
				Label:      LabelAddress,
				StartPos:   start,
				EndPos:     start + len(candidate),
				Confidence: 0.9,
			})
		}
	}

	// Pattern matches, scored higher when close to a context word.
	for _, re := range d.patterns {
		for _, match := range re.FindAllStringIndex(text, -1) {
			span := text[match[0]:match[1]]
			if !d.isValidAddress(span) {
				continue
			}
			score := 0.8
			for _, ctxSpan := range contextSpans {
				if abs(ctxSpan[1]-match[0]) < 20 {
					score = 0.95
					break
				}
			}
			start, end := d.expandSpan(text, match[0], match[1])
			entities = append(entities, Entity{
				Text:       text[start:end],
				Label:      LabelAddress,
				StartPos:   start,
				EndPos:     end,
				Confidence: score,
			})
		}
	}

	return DetectorOutput{Text: text, Entities: removeOverlapping(entities)}, nil
}

// isValidAddress filters out digit patterns that look like other PII.
func (d *AddressDetector) isValidAddress(span string) bool {
	for _, re := range d.notAddressRes {
		if re.MatchString(span) {
			return false
		}
	}
	return d.hasAddressFeatures(span)
}

func (d *AddressDetector) hasAddressFeatures(span string) bool {
	if strings.Contains(span, "〒") {
		return true
	}
	for _, pref := range prefectures {
		if strings.Contains(span, pref) {
			return true
		}
	}
	for _, kw := range addressKeywords {
		if strings.Contains(span, kw) {
			return true
		}
	}
	if d.featureRe.MatchString(span) {
		return true
	}
	// X-Y-Z style block numbers.
	return d.blockXYZRe.MatchString(span)
}

// expandSpan grows an address match to cover a leading prefecture and a
// trailing block number.
func (d *AddressDetector) expandSpan(text string, start, end int) (int, int) {
	pre := text[:start]
	for _, pref := range prefectures {
		pos := strings.LastIndex(pre, pref)
		if pos != -1 && start-pos < 90 { // within ~30 runes
			start = pos
			break
		}
	}

	limit := end + 90
	if limit > len(text) {
		limit = len(text)
	}
	post := text[end:limit]
	if m := d.blockNumberRe.FindStringIndex(post); m != nil && m[0] == 0 {
		extended := end + m[1]
		if dm := d.delimiterRe.FindStringIndex(post[m[1]:]); dm != nil {
			extended = end + m[1] + dm[0]
		}
		if extended > end && extended <= len(text) {
			end = extended
		}
	}
	return start, end
}

// removeOverlapping drops spans that duplicate, are contained in, or
// mostly overlap a higher-scored span.
func removeOverlapping(entities []Entity) []Entity {
	if len(entities) == 0 {
		return entities
	}
	sorted := make([]Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return sorted[i].StartPos < sorted[j].StartPos
	})

	var filtered []Entity
	for _, e := range sorted {
		contained := false
		for _, kept := range filtered {
			if kept.Contains(e) {
				contained = true
				break
			}
			overlapStart := max(e.StartPos, kept.StartPos)
			overlapEnd := min(e.EndPos, kept.EndPos)
			length := e.EndPos - e.StartPos
			if overlapEnd > overlapStart && length > 0 &&
				float64(overlapEnd-overlapStart)/float64(length) > 0.8 {
				contained = true
				break
			}
		}
		if !contained {
			filtered = append(filtered, e)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].StartPos < filtered[j].StartPos })
	return filtered
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Close implements the Detector interface.
func (d *AddressDetector) Close() error {
	return nil
}
