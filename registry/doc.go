// Package registry maps parameter type names to coercion capabilities.
//
// The registry is a closed-but-extensible union: a fixed set of built-in kinds
//
//	int   → int64
//	float → float64
//	bool  → bool
//	str   → string
//	date  → time.Time (UTC midnight, ISO "YYYY-MM-DD")
//
// plus KindCustom, whose behaviour is looked up by name in the registry map.
// A custom type is either complete (Register) or partial (RegisterPartial):
// a partial type is constructed only when the schema's range/choice bounds are
// known (Finalize), so a caller-supplied coercion routine can be combined with
// bounds declared in the schema instead of hard-coding them.
//
// Scalar coercion of built-ins runs through go-cty: the raw Go value is lifted
// into a cty.Value, converted with cty/convert to the target primitive type and
// lowered back with cty/gocty. Coercion never panics; failures are returned as
// *CoercionError so a validator can aggregate many of them.
//
// Lifecycle: populate at startup, then Freeze. A frozen registry is read-only
// and safe for concurrent use.
package registry
