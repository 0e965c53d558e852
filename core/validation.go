package core

import (
	"fmt"
	"slices"
)

// ValidateInputDescriptor validates an InputDescriptor according to domain rules.
//
// Validation rules:
//   - Modality must be one of the supported modalities
//   - MIME must not be empty
//   - SizeBytes must not be negative
func ValidateInputDescriptor(desc InputDescriptor) error {
	if !slices.Contains(Modalities, desc.Modality) {
		return fmt.Errorf("%w: %q", ErrUnsupportedModality, desc.Modality)
	}

	if desc.MIME == "" {
		return fmt.Errorf("%w: mime type", ErrMissingOption)
	}

	if desc.SizeBytes < 0 {
		return fmt.Errorf("%w: negative size", ErrMissingOption)
	}

	return nil
}

// ValidateQuotaThresholds validates that thresholds are fractions in (0,1]
// and strictly increasing warn < high < critical.
func ValidateQuotaThresholds(t QuotaThresholds) error {
	if t.Warn <= 0 || t.Critical > 1 {
		return fmt.Errorf("%w: thresholds must be fractions in (0,1]", ErrInvalidThresholds)
	}

	if !(t.Warn < t.High && t.High < t.Critical) {
		return fmt.Errorf("%w: require warn < high < critical", ErrInvalidThresholds)
	}

	return nil
}
