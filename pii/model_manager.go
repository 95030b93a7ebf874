package pii

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/hannes/pii-mask/pii/detectors"
)

// ModelManager owns the ONNX model detector and supports validated,
// thread-safe hot reloads: a new model is loaded and probed before it
// replaces the old one.
type ModelManager struct {
	mu              sync.RWMutex
	currentDetector detectors.Detector
	modelDirectory  string
	isHealthy       bool
	lastError       error
}

// NewModelManager creates a manager and performs the initial load. A
// failed initial load leaves the manager unhealthy rather than failing,
// so callers can start without a model and reload later.
func NewModelManager(directory string) *ModelManager {
	mm := &ModelManager{modelDirectory: directory}
	if err := mm.ReloadModel(directory); err != nil {
		log.Warn("initial model load failed; manager starts unhealthy", "dir", directory, "err", err)
	}
	return mm
}

// GetDetector returns the current detector in a thread-safe manner.
func (mm *ModelManager) GetDetector() (detectors.Detector, error) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	if !mm.isHealthy {
		return nil, fmt.Errorf("model is unhealthy: %w", mm.lastError)
	}
	if mm.currentDetector == nil {
		return nil, fmt.Errorf("no detector available")
	}
	return mm.currentDetector, nil
}

// ReloadModel loads the model from the directory, probes it with a test
// inference, and swaps it in atomically.
func (mm *ModelManager) ReloadModel(newDirectory string) error {
	if err := validateModelDirectory(newDirectory); err != nil {
		mm.setUnhealthy(err)
		return fmt.Errorf("validation failed: %w", err)
	}

	// Load outside the lock to keep readers unblocked.
	newDetector, err := detectors.NewONNXModelDetector(newDirectory)
	if err != nil {
		mm.setUnhealthy(err)
		return fmt.Errorf("failed to load model: %w", err)
	}

	// Probe inference before trusting the new model.
	probe := detectors.DetectorInput{Text: "テスト：山田太郎の電話番号は090-1234-5678です。"}
	if _, err := newDetector.Detect(context.Background(), probe); err != nil {
		if closeErr := newDetector.Close(); closeErr != nil {
			log.Warn("failed to close rejected detector", "err", closeErr)
		}
		mm.setUnhealthy(err)
		return fmt.Errorf("model validation failed: %w", err)
	}

	mm.mu.Lock()
	oldDetector := mm.currentDetector
	mm.currentDetector = newDetector
	mm.modelDirectory = newDirectory
	mm.isHealthy = true
	mm.lastError = nil
	mm.mu.Unlock()

	log.Info("model swap completed", "dir", newDirectory)

	if oldDetector != nil {
		if err := oldDetector.Close(); err != nil {
			log.Warn("failed to close old detector", "err", err)
		}
	}
	return nil
}

// Healthy reports whether a working detector is loaded.
func (mm *ModelManager) Healthy() bool {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.isHealthy
}

// Detector returns a detectors.Detector view of the manager that always
// delegates to the current model, so a reload takes effect without
// rebuilding the masker.
func (mm *ModelManager) Detector() detectors.Detector {
	return &managedDetector{manager: mm}
}

// Close closes the current detector.
func (mm *ModelManager) Close() error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.currentDetector == nil {
		return nil
	}
	err := mm.currentDetector.Close()
	mm.currentDetector = nil
	mm.isHealthy = false
	return err
}

func (mm *ModelManager) setUnhealthy(err error) {
	mm.mu.Lock()
	mm.isHealthy = false
	mm.lastError = err
	mm.mu.Unlock()
}

// validateModelDirectory checks that all required model files exist.
func validateModelDirectory(dir string) error {
	for _, name := range []string{"model.onnx", "tokenizer.json", "label_mappings.json"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("missing model file %s: %w", path, err)
		}
	}
	return nil
}

// managedDetector delegates to whatever detector the manager currently
// holds.
type managedDetector struct {
	manager *ModelManager
}

func (d *managedDetector) GetName() string {
	return detectors.DetectorNameONNX
}

func (d *managedDetector) Detect(ctx context.Context, input detectors.DetectorInput) (detectors.DetectorOutput, error) {
	detector, err := d.manager.GetDetector()
	if err != nil {
		return detectors.DetectorOutput{}, err
	}
	return detector.Detect(ctx, input)
}

func (d *managedDetector) Close() error {
	// Lifecycle belongs to the manager.
	return nil
}
