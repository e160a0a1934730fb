// Package schema holds the in-memory description of a parameter space and
// loads it from JSON or HCL sources.
//
// A schema declares, in order:
//   - labels: named dimensions with a type and a range/date_range/choice validator;
//   - additional members: extra typed fields every parameter may carry;
//   - operators: array_first, label_to_extend, uses_extend_func;
//   - parameters: title, type, number_dims, indexed flag, validators and the
//     default values as a list of value objects.
//
// Declaration order carries meaning (label order fixes array axis order,
// parameter order fixes validation and adjustment order), so LoadJSON walks
// the document with a token decoder instead of decoding into Go maps.
//
// Validator bounds are literal values or references. A string bound that
// names another parameter, or the keyword "default", becomes a Ref during
// Resolve; after that the validators never look at raw strings again.
//
//	sch, err := schema.LoadJSON(f)
//	if err != nil { ... }
//	if err := sch.Resolve(registry.Default()); err != nil { ... }
//
// A resolved Schema is read-only.
package schema
