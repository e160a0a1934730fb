// SPDX-License-Identifier: MIT

package params

import (
	"github.com/google/uuid"
	"github.com/katalvlaran/paramspace/validate"
)

// Transaction runs fn as one unit of change.
// MAIN DESCRIPTION:
//   - Checks whose bounds reference another parameter are deferred until fn
//     returns; the whole specification is then validated at once.
//   - If fn returns an error, panics, or the final check fails, every store
//     is restored to its state before the call.
//
// Implementation:
//   - Stage 1 (Begin): snapshot all stores, tag the transaction with a uuid.
//   - Stage 2 (Execute): run fn without the lock held.
//   - Stage 3 (Commit): validate the specification; restore on errors.
//
// A Transaction started inside fn joins the enclosing one.
//
// Errors:
//   - the error returned by fn.
//   - *ValidationError when the final check fails (nil under RaiseErrors(false)).
func (p *Parameters) Transaction(fn func(p *Parameters) error, opts ...AdjustOption) error {
	cfg := newAdjustConfig(opts)
	p.mu.Lock()
	if p.inTx {
		p.mu.Unlock()

		return fn(p)
	}
	id := uuid.New()
	log := p.log.With().Str("tx", id.String()).Logger()
	snap := p.snapshot()
	p.inTx = true
	p.mu.Unlock()
	log.Debug().Msg("transaction begin")

	defer func() {
		if r := recover(); r != nil {
			p.mu.Lock()
			p.inTx = false
			p.restore(snap)
			p.mu.Unlock()
			log.Debug().Interface("panic", r).Msg("transaction rollback")
			panic(r)
		}
	}()
	fnErr := fn(p)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inTx = false
	if fnErr != nil {
		p.restore(snap)
		log.Debug().Err(fnErr).Msg("transaction rollback")

		return fnErr
	}
	rep := cfg.settle(validate.Specification(p.context()))
	if rep.HasErrors() {
		p.restore(snap)
		log.Debug().Int("errors", len(rep.Errors)).Msg("transaction rollback")

		return p.reject(rep, cfg)
	}
	p.report = rep
	p.finish()
	log.Debug().Int("warnings", len(rep.Warnings)).Msg("transaction commit")

	return nil
}
