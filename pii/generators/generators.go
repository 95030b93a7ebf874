// Package generators produces realistic dummy replacements for detected
// PII spans. All generators take the shared RNG and the original span so
// they can mirror its formatting where that matters.
package generators

import (
	"fmt"
	"math/rand"
	"strings"
)

// PersonGenerator generates dummy Japanese full names.
func PersonGenerator(rng *rand.Rand, original string) string {
	surnames := []string{
		"佐藤", "鈴木", "高橋", "田中", "伊藤", "渡辺", "山本", "中村",
		"小林", "加藤", "吉田", "山田", "松本", "井上", "木村", "林",
	}
	givenNames := []string{
		"太郎", "花子", "一郎", "美咲", "健太", "さくら", "大輔", "陽子",
		"翔太", "愛", "拓也", "優子", "直樹", "恵", "誠", "由美",
	}
	surname := surnames[rng.Intn(len(surnames))]
	given := givenNames[rng.Intn(len(givenNames))]

	// Mirror a space in the original if it had one.
	if strings.ContainsAny(original, " 　") {
		return surname + " " + given
	}
	return surname + given
}

// PhoneGenerator generates dummy Japanese phone numbers.
func PhoneGenerator(rng *rand.Rand, original string) string {
	if strings.HasPrefix(original, "090") || strings.HasPrefix(original, "080") || strings.HasPrefix(original, "070") {
		prefixes := []string{"090", "080", "070"}
		return fmt.Sprintf("%s-%04d-%04d", prefixes[rng.Intn(len(prefixes))], rng.Intn(10000), rng.Intn(10000))
	}
	return fmt.Sprintf("0%d-%04d-%04d", 1+rng.Intn(9), rng.Intn(10000), rng.Intn(10000))
}

// EmailGenerator generates dummy email addresses on reserved domains.
func EmailGenerator(rng *rand.Rand, original string) string {
	locals := []string{
		"taro.sato", "hanako.suzuki", "ichiro.takahashi", "misaki.tanaka",
		"kenta.ito", "sakura.watanabe", "daisuke.yamamoto", "yoko.nakamura",
	}
	// RFC 2606 reserved domains only.
	domains := []string{"example.com", "example.org", "example.net", "example.jp"}
	return fmt.Sprintf("%s@%s", locals[rng.Intn(len(locals))], domains[rng.Intn(len(domains))])
}

// AddressGenerator generates dummy Japanese addresses.
func AddressGenerator(rng *rand.Rand, original string) string {
	cities := []string{
		"東京都千代田区", "東京都新宿区", "大阪府大阪市北区", "愛知県名古屋市中区",
		"福岡県福岡市博多区", "北海道札幌市中央区", "宮城県仙台市青葉区",
	}
	towns := []string{"本町", "栄町", "中央", "旭町", "緑町", "富士見"}
	return fmt.Sprintf("%s%s%d-%d-%d",
		cities[rng.Intn(len(cities))], towns[rng.Intn(len(towns))],
		1+rng.Intn(9), 1+rng.Intn(30), 1+rng.Intn(20))
}

// LocationGenerator generates dummy place names.
func LocationGenerator(rng *rand.Rand, original string) string {
	locations := []string{"東京", "大阪", "名古屋", "福岡", "札幌", "仙台", "広島", "横浜"}
	return locations[rng.Intn(len(locations))]
}

// BirthdateGenerator generates dummy dates, mirroring the original's
// formatting (Japanese-style, slash-separated, or era dates).
func BirthdateGenerator(rng *rand.Rand, original string) string {
	year := 1950 + rng.Intn(55)
	month := 1 + rng.Intn(12)
	day := 1 + rng.Intn(28)

	switch {
	case strings.Contains(original, "年") && strings.Contains(original, "月"):
		return fmt.Sprintf("%d年%d月%d日", year, month, day)
	case strings.Contains(original, "年"):
		return fmt.Sprintf("%d年生まれ", year)
	case strings.Contains(original, "/") || strings.Contains(original, "／"):
		return fmt.Sprintf("%d/%d/%d", year, month, day)
	}
	return fmt.Sprintf("%d年%d月%d日", year, month, day)
}

// CreditCardGenerator generates dummy credit card numbers.
func CreditCardGenerator(rng *rand.Rand, original string) string {
	sep := " "
	if strings.Contains(original, "-") {
		sep = "-"
	}
	groups := make([]string, 4)
	for i := range groups {
		groups[i] = fmt.Sprintf("%04d", rng.Intn(10000))
	}
	return strings.Join(groups, sep)
}

// MyNumberGenerator generates dummy 12-digit My Numbers.
func MyNumberGenerator(rng *rand.Rand, original string) string {
	if strings.ContainsAny(original, " -") {
		return fmt.Sprintf("%04d-%04d-%04d", rng.Intn(10000), rng.Intn(10000), rng.Intn(10000))
	}
	return fmt.Sprintf("%012d", rng.Int63n(1000000000000))
}

// PostalCodeGenerator generates dummy Japanese postal codes.
func PostalCodeGenerator(rng *rand.Rand, original string) string {
	code := fmt.Sprintf("%03d-%04d", rng.Intn(1000), rng.Intn(10000))
	if strings.HasPrefix(original, "〒") {
		return "〒" + code
	}
	return code
}

// IPAddressGenerator generates dummy addresses from TEST-NET ranges.
func IPAddressGenerator(rng *rand.Rand, original string) string {
	// RFC 5737 documentation ranges.
	nets := []string{"192.0.2", "198.51.100", "203.0.113"}
	return fmt.Sprintf("%s.%d", nets[rng.Intn(len(nets))], 1+rng.Intn(254))
}

// URLGenerator generates dummy URLs on reserved domains.
func URLGenerator(rng *rand.Rand, original string) string {
	domains := []string{"example.com", "example.org", "example.net"}
	paths := []string{"", "/profile", "/about", "/contact", "/home"}
	return fmt.Sprintf("https://%s%s", domains[rng.Intn(len(domains))], paths[rng.Intn(len(paths))])
}

// SSNGenerator generates dummy US social security numbers.
func SSNGenerator(rng *rand.Rand, original string) string {
	return fmt.Sprintf("%03d-%02d-%04d", 100+rng.Intn(800), 10+rng.Intn(90), 1000+rng.Intn(9000))
}

// BankAccountGenerator generates dummy 7-digit account numbers.
func BankAccountGenerator(rng *rand.Rand, original string) string {
	return fmt.Sprintf("%07d", rng.Intn(10000000))
}

// DriverLicenseGenerator generates dummy 12-digit license numbers.
func DriverLicenseGenerator(rng *rand.Rand, original string) string {
	return fmt.Sprintf("%012d", rng.Int63n(1000000000000))
}

// DateTimeGenerator generates dummy dates.
func DateTimeGenerator(rng *rand.Rand, original string) string {
	return BirthdateGenerator(rng, original)
}

// GenericGenerator is the fallback for labels with no dedicated
// generator.
func GenericGenerator(rng *rand.Rand, original string) string {
	return fmt.Sprintf("[REDACTED-%04d]", rng.Intn(10000))
}
