// Package metric holds the calculators behind every trust sub-score.
// Calculators are pure functions over immutable inputs, except ramp-up
// which reads the checkout and the package registry.
package metric

import "errors"

// ErrInsufficientData is returned when a calculator has no data to work with.
var ErrInsufficientData = errors.New("insufficient data")
