package pii

import (
	"math/rand"
	"sync"
	"time"

	"github.com/hannes/pii-mask/pii/detectors"
	piigen "github.com/hannes/pii-mask/pii/generators"
)

// GeneratorService produces dummy replacements for PII spans. It is
// safe for concurrent use.
type GeneratorService struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGeneratorService creates a generator service with a time-based seed.
func NewGeneratorService() *GeneratorService {
	// #nosec G404 - dummy data generation, not security-critical
	return &GeneratorService{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewGeneratorServiceWithSeed creates a generator with a fixed seed for
// deterministic output in tests.
func NewGeneratorServiceWithSeed(seed int64) *GeneratorService {
	// #nosec G404 - dummy data generation, not security-critical
	return &GeneratorService{rng: rand.New(rand.NewSource(seed))}
}

// GenerateReplacement generates a replacement for the given PII label
// and original text.
func (s *GeneratorService) GenerateReplacement(label, originalText string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generatorForLabel(label)(originalText)
}

func (s *GeneratorService) generatorForLabel(label string) func(string) string {
	generators := map[string]func(string) string{
		detectors.LabelPerson:          func(o string) string { return piigen.PersonGenerator(s.rng, o) },
		detectors.LabelLocation:        func(o string) string { return piigen.LocationGenerator(s.rng, o) },
		detectors.LabelAddress:         func(o string) string { return piigen.AddressGenerator(s.rng, o) },
		detectors.LabelPhoneNumber:     func(o string) string { return piigen.PhoneGenerator(s.rng, o) },
		detectors.LabelEmailAddress:    func(o string) string { return piigen.EmailGenerator(s.rng, o) },
		detectors.LabelBirthdate:       func(o string) string { return piigen.BirthdateGenerator(s.rng, o) },
		detectors.LabelDateTime:        func(o string) string { return piigen.DateTimeGenerator(s.rng, o) },
		detectors.LabelCreditCard:      func(o string) string { return piigen.CreditCardGenerator(s.rng, o) },
		detectors.LabelURL:             func(o string) string { return piigen.URLGenerator(s.rng, o) },
		detectors.LabelIPAddress:       func(o string) string { return piigen.IPAddressGenerator(s.rng, o) },
		detectors.LabelJPMyNumber:      func(o string) string { return piigen.MyNumberGenerator(s.rng, o) },
		detectors.LabelJPPostalCode:    func(o string) string { return piigen.PostalCodeGenerator(s.rng, o) },
		detectors.LabelJPDriverLicense: func(o string) string { return piigen.DriverLicenseGenerator(s.rng, o) },
		detectors.LabelJPBankAccount:   func(o string) string { return piigen.BankAccountGenerator(s.rng, o) },
		detectors.LabelUSSSN:           func(o string) string { return piigen.SSNGenerator(s.rng, o) },
	}
	if generator, exists := generators[label]; exists {
		return generator
	}
	return func(o string) string { return piigen.GenericGenerator(s.rng, o) }
}
