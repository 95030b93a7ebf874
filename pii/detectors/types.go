package detectors

// Entity type labels supported by the built-in detectors.
const (
	LabelPerson          = "PERSON"
	LabelLocation        = "LOCATION"
	LabelAddress         = "ADDRESS"
	LabelPhoneNumber     = "PHONE_NUMBER"
	LabelEmailAddress    = "EMAIL_ADDRESS"
	LabelBirthdate       = "BIRTHDATE"
	LabelDateTime        = "DATE_TIME"
	LabelCreditCard      = "CREDIT_CARD"
	LabelURL             = "URL"
	LabelIPAddress       = "IP_ADDRESS"
	LabelJPMyNumber      = "JP_MY_NUMBER"
	LabelJPPostalCode    = "JP_POSTAL_CODE"
	LabelJPDriverLicense = "JP_DRIVER_LICENSE"
	LabelJPBankAccount   = "JP_BANK_ACCOUNT"
	LabelUSSSN           = "US_SSN"
)

// SupportedLabels returns every entity type label the built-in
// detectors can produce.
func SupportedLabels() []string {
	return []string{
		LabelPerson, LabelLocation, LabelAddress, LabelPhoneNumber,
		LabelEmailAddress, LabelBirthdate, LabelDateTime, LabelCreditCard,
		LabelURL, LabelIPAddress, LabelJPMyNumber, LabelJPPostalCode,
		LabelJPDriverLicense, LabelJPBankAccount, LabelUSSSN,
	}
}

// DetectorInput is the text handed to a detector for analysis.
type DetectorInput struct {
	Text string `json:"text"`
}

// DetectorOutput holds the entities a detector found in the input text.
type DetectorOutput struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities"`
}

// Entity is a detected PII span. StartPos and EndPos are byte offsets
// into the original text.
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	StartPos   int     `json:"start_pos"`
	EndPos     int     `json:"end_pos"`
	Confidence float64 `json:"confidence"`
}

// Contains reports whether e fully covers other.
func (e Entity) Contains(other Entity) bool {
	return e.StartPos <= other.StartPos && e.EndPos >= other.EndPos
}

// Overlaps reports whether the two spans share at least one byte.
func (e Entity) Overlaps(other Entity) bool {
	return e.StartPos < other.EndPos && other.StartPos < e.EndPos
}
