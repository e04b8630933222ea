package config

import "fmt"

// ArtifactConfig locates the serialized model bundle.
type ArtifactConfig struct {
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *ArtifactConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "models/all_models.json"
	}
}

// Validate checks mandatory fields.
func (c ArtifactConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("artifact path is required")
	}
	return nil
}
