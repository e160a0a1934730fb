// SPDX-License-Identifier: MIT

package values

import "errors"

var (
	// ErrMissingValue indicates a serialized ValueObject without a "value" member.
	ErrMissingValue = errors.New("values: value object has no \"value\" member")

	// ErrReservedLabel indicates a label named "value" or "_auto".
	ErrReservedLabel = errors.New("values: reserved label name")

	// ErrDuplicateKey indicates two entries with the same label key in one store.
	ErrDuplicateKey = errors.New("values: duplicate label key")

	// ErrUnknownOp indicates a query operator outside eq/ne/gt/gte/lt/lte.
	ErrUnknownOp = errors.New("values: unknown query operator")
)
