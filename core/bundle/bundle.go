// Package bundle persists the three trained models as one JSON artifact.
package bundle

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/ridefair/core/ml"
	"github.com/kilianp07/ridefair/core/model"
)

var (
	// ErrArtifactMissing is returned when no artifact exists at the configured path.
	ErrArtifactMissing = errors.New("model artifact missing")
	// ErrArtifactCorrupt is returned when the artifact cannot be decoded or validated.
	ErrArtifactCorrupt = errors.New("model artifact corrupt")
)

// Meta describes the training run that produced a bundle. It never
// influences predictions.
type Meta struct {
	RunID        string    `json:"run_id"`
	TrainedAt    time.Time `json:"trained_at"`
	Records      int       `json:"records"`
	ScamFraction float64   `json:"scam_fraction"`
	ClusterCount int       `json:"cluster_count"`
}

// Bundle groups the fitted models served together.
type Bundle struct {
	PriceModel   *ml.LinearRegression   `json:"price_model"`
	ScamModel    *ml.LogisticRegression `json:"scam_model"`
	HotspotModel *ml.KMeans             `json:"hotspot_model"`
	Meta         Meta                   `json:"meta"`
}

// Validate checks every model is present and matches the feature layout.
func (b *Bundle) Validate() error {
	if b.PriceModel == nil {
		return errors.New("price_model is missing")
	}
	if b.ScamModel == nil {
		return errors.New("scam_model is missing")
	}
	if b.HotspotModel == nil {
		return errors.New("hotspot_model is missing")
	}
	if err := b.PriceModel.Validate(model.PriceFeatureCount); err != nil {
		return fmt.Errorf("price_model: %w", err)
	}
	if err := b.ScamModel.Validate(model.ScamFeatureCount); err != nil {
		return fmt.Errorf("scam_model: %w", err)
	}
	if err := b.HotspotModel.Validate(b.Meta.ClusterCount, 2); err != nil {
		return fmt.Errorf("hotspot_model: %w", err)
	}
	return nil
}

// Store persists and restores bundles.
type Store interface {
	Save(b *Bundle) error
	Load() (*Bundle, error)
}
