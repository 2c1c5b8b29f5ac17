package stage

import (
	"context"
	"time"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/coolshawn/Hasal/internal/domain/port"
	"go.uber.org/zap"
)

// ValidationResult is the outcome of the validation stage. On failure,
// FailedCheck names the check that stopped the run and Checks still holds
// its diagnostic output; downstream stages must not execute.
type ValidationResult struct {
	Passed      bool
	FailedCheck string
	Checks      map[string]entity.CheckOutput

	// FPS is the measured frame rate reported by the FPS check, used by the
	// conversion stage for frame-index arithmetic.
	FPS float64
}

// RunValidators resolves and runs the named checks in order, short-circuiting
// on the first failure. A resolution miss is fatal; a check failure is not an
// error, it is a terminal-for-this-run result the caller inspects.
func (r *Registry) RunValidators(ctx context.Context, names []string, in port.ValidatorInput) (*ValidationResult, error) {
	units := make([]port.Validator, 0, len(names))
	for _, name := range names {
		v, err := r.Validator(name)
		if err != nil {
			return nil, err
		}
		units = append(units, v)
	}

	result := &ValidationResult{Checks: make(map[string]entity.CheckOutput)}
	for _, v := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		passed := v.Validate(in)
		out := v.Output()
		r.logger.Debug("stage elapsed",
			zap.String("stage", v.Name()),
			zap.Duration("elapsed", time.Since(start)),
		)

		result.Checks[v.Name()] = out
		if out.FPS > 0 {
			result.FPS = out.FPS
		}
		if !passed {
			r.logger.Warn("validation check failed",
				zap.String("check", v.Name()),
				zap.String("detail", out.Detail),
			)
			result.FailedCheck = v.Name()
			return result, nil
		}
	}
	result.Passed = true
	return result, nil
}
