// SPDX-License-Identifier: MIT

package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid indicates a label whose validator cannot produce a finite,
// totally ordered domain: no range or choice, missing or non-finite bounds,
// min > max, a non-positive step, or too many points.
var ErrInvalidGrid = errors.New("grid: invalid label grid")

func invalidf(label, format string, args ...any) error {
	return fmt.Errorf("grid: label %q: %s: %w", label, fmt.Sprintf(format, args...), ErrInvalidGrid)
}
