package detectors

// Pattern is a single scored regular expression for an entity type.
type Pattern struct {
	Name  string
	Regex string
	Score float64
}

// RecognizerSpec bundles the patterns and context words for one entity
// type. Context words found near a match raise its confidence.
type RecognizerSpec struct {
	Label    string
	Patterns []Pattern
	Context  []string
}

// JapaneseRecognizers returns the built-in pattern recognizers for
// Japanese text. Scores follow the original tuning: unambiguous formats
// (email, URL) start high, digit-only formats start low and rely on
// context words to clear the detection threshold.
func JapaneseRecognizers() []RecognizerSpec {
	return []RecognizerSpec{
		{
			Label: LabelPhoneNumber,
			Patterns: []Pattern{
				{Name: "mobile_phone", Regex: `0[789]0[-\s]?\d{4}[-\s]?\d{4}`, Score: 0.8},
				{Name: "landline_phone", Regex: `0\d{1,4}[-\s]?\d{1,4}[-\s]?\d{4}`, Score: 0.8},
			},
			Context: []string{"電話", "電話番号", "携帯", "携帯電話", "TEL", "Tel", "tel", "連絡先", "通話"},
		},
		{
			Label: LabelEmailAddress,
			Patterns: []Pattern{
				{Name: "email", Regex: `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, Score: 0.9},
			},
			Context: []string{"メール", "メールアドレス", "メアド", "email", "Email", "E-mail", "mail", "アドレス"},
		},
		{
			Label: LabelJPMyNumber,
			Patterns: []Pattern{
				{Name: "my_number", Regex: `\d{4}[\s-]?\d{4}[\s-]?\d{4}|\d{12}`, Score: 0.6},
			},
			Context: []string{"マイナンバー", "個人番号", "個人番号カード", "通知カード", "マイナンバー:", "個人番号:"},
		},
		{
			Label: LabelJPPostalCode,
			Patterns: []Pattern{
				{Name: "postal_code_marked", Regex: `〒\s?\d{3}[-−]?\d{4}`, Score: 0.85},
				{Name: "postal_code_bare", Regex: `\d{3}[-−]\d{4}`, Score: 0.3},
			},
			Context: []string{"郵便番号", "〒", "郵便"},
		},
		{
			Label: LabelBirthdate,
			Patterns: []Pattern{
				{Name: "western_date", Regex: `\d{4}年\d{1,2}月\d{1,2}日`, Score: 0.7},
				{Name: "western_date_slash", Regex: `\d{4}[/／]\d{1,2}[/／]\d{1,2}`, Score: 0.7},
				{Name: "year_only", Regex: `\d{4}年(?:生|生まれ)`, Score: 0.6},
				{Name: "japanese_era_date", Regex: `(?:昭和|平成|大正|明治|令和)\d{1,2}年\d{1,2}月\d{1,2}日`, Score: 0.7},
			},
			Context: []string{"生年月日", "誕生日", "生まれ", "出生", "年齢", "生誕"},
		},
		{
			Label: LabelDateTime,
			Patterns: []Pattern{
				{Name: "clock_time", Regex: `\d{1,2}[:：]\d{2}(?:[:：]\d{2})?`, Score: 0.6},
				{Name: "japanese_time", Regex: `\d{1,2}時(?:\d{1,2}分)?(?:\d{1,2}秒)?`, Score: 0.6},
			},
			Context: []string{"時刻", "時間", "午前", "午後", "集合", "開始", "終了"},
		},
		{
			Label: LabelCreditCard,
			Patterns: []Pattern{
				{Name: "credit_card", Regex: `\d{4}[\s-]\d{4}[\s-]\d{4}[\s-]\d{4}`, Score: 0.7},
			},
			Context: []string{"クレジットカード", "カード番号", "クレカ", "VISA", "Mastercard", "JCB"},
		},
		{
			Label: LabelURL,
			Patterns: []Pattern{
				{Name: "url", Regex: `https?://[^\s　]+`, Score: 0.85},
			},
			Context: []string{"URL", "リンク", "サイト"},
		},
		{
			Label: LabelIPAddress,
			Patterns: []Pattern{
				{Name: "ipv4", Regex: `\b(?:\d{1,3}\.){3}\d{1,3}\b`, Score: 0.6},
			},
			Context: []string{"IPアドレス", "IP", "サーバー", "ホスト"},
		},
		{
			Label: LabelUSSSN,
			Patterns: []Pattern{
				{Name: "us_ssn", Regex: `\b\d{3}-\d{2}-\d{4}\b`, Score: 0.7},
			},
			Context: []string{"SSN", "社会保障番号"},
		},
		{
			Label: LabelJPDriverLicense,
			Patterns: []Pattern{
				{Name: "driver_license", Regex: `\d{12}`, Score: 0.3},
			},
			Context: []string{"運転免許", "運転免許証", "免許証番号", "免許"},
		},
		{
			Label: LabelJPBankAccount,
			Patterns: []Pattern{
				{Name: "bank_account", Regex: `\d{7}`, Score: 0.25},
			},
			Context: []string{"口座", "口座番号", "銀行", "支店", "普通預金", "当座"},
		},
	}
}
