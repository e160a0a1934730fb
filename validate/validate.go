// SPDX-License-Identifier: MIT

package validate

import (
	"sort"

	"github.com/katalvlaran/paramspace/schema"
	"github.com/katalvlaran/paramspace/values"
)

// Bounds runs the validators of p over already coerced value objects.
// Delete directives are skipped.
func Bounds(ctx Context, p *schema.Parameter, vos []values.ValueObject) Report {
	var rep Report
	if p.Validators.Empty() {
		return rep
	}
	for _, vo := range vos {
		if vo.IsDelete() {
			continue
		}
		for _, f := range newChecker(ctx, p, vo).validators(p.Validators) {
			rep.add(f.msg, f.level.Blocking())
		}
	}

	return rep
}

// Param coerces and bound-checks candidates of p. The coerced candidates
// that passed coercion are returned even when bound checks fail.
func Param(ctx Context, p *schema.Parameter, candidates []values.ValueObject) ([]values.ValueObject, Report) {
	vos, rep := Coerce(ctx, p, candidates)
	rep.Merge(Bounds(ctx, p, vos))

	return vos, rep
}

// Adjustment validates a batch {param: candidates}.
//
// Stage 1 (Coerce): every parameter of the batch is coerced first, so that
// references between adjusted parameters see typed values.
// Stage 2 (Bounds): each parameter is checked with ctx.Batch set to the
// coerced batch.
//
// Undeclared parameter names produce ErrUnknownParameter messages.
func Adjustment(ctx Context, adj map[string][]values.ValueObject) (map[string][]values.ValueObject, Report) {
	var rep Report
	names := make([]string, 0, len(adj))
	for name := range adj {
		if ctx.Schema.ParamIndex(name) < 0 {
			rep.addError(newMessage(ErrUnknownParameter, name, nil, "%s: unknown parameter", name))

			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return ctx.Schema.ParamIndex(names[i]) < ctx.Schema.ParamIndex(names[j])
	})

	batch := make(map[string][]values.ValueObject, len(names))
	for _, name := range names {
		p, _ := ctx.Schema.Param(name)
		vos, r := Coerce(ctx, p, adj[name])
		rep.Merge(r)
		batch[name] = vos
	}
	ctx.Batch = batch
	for _, name := range names {
		p, _ := ctx.Schema.Param(name)
		rep.Merge(Bounds(ctx, p, batch[name]))
	}

	return batch, rep
}

// Specification checks the current values of every parameter, e.g. when a
// transaction commits.
func Specification(ctx Context) Report {
	var rep Report
	for _, p := range ctx.Schema.Params {
		rep.Merge(Bounds(ctx, p, ctx.current(p.Name)))
	}

	return rep
}
