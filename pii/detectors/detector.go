package detectors

import (
	"context"
)

// Detector names used in configuration and logs.
const (
	DetectorNameRegex   = "regex_detector"
	DetectorNameAddress = "address_detector"
	DetectorNameKagome  = "kagome_detector"
	DetectorNameONNX    = "onnx_model_detector"
)

// Detector locates PII entities in text. Implementations own whatever
// resources they need (compiled patterns, dictionaries, model sessions)
// and release them in Close.
type Detector interface {
	GetName() string
	Detect(ctx context.Context, input DetectorInput) (DetectorOutput, error)
	Close() error
}
