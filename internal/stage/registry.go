package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/coolshawn/Hasal/internal/domain/entity"
	"github.com/coolshawn/Hasal/internal/domain/port"
	"go.uber.org/zap"
)

// Registry maps stage names to constructors for the four unit kinds. Names
// resolve against it at run time, so a bad name fails before the pipeline
// touches anything. It is immutable for the duration of a pipeline run.
type Registry struct {
	validators map[string]func() port.Validator
	converters map[string]func() port.Converter
	matchers   map[string]func() port.SampleMatcher
	generators map[string]func() port.Generator
	logger     *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		validators: make(map[string]func() port.Validator),
		converters: make(map[string]func() port.Converter),
		matchers:   make(map[string]func() port.SampleMatcher),
		generators: make(map[string]func() port.Generator),
		logger:     logger,
	}
}

func (r *Registry) RegisterValidator(name string, fn func() port.Validator) {
	r.validators[name] = fn
}

func (r *Registry) RegisterConverter(name string, fn func() port.Converter) {
	r.converters[name] = fn
}

func (r *Registry) RegisterMatcher(name string, fn func() port.SampleMatcher) {
	r.matchers[name] = fn
}

func (r *Registry) RegisterGenerator(name string, fn func() port.Generator) {
	r.generators[name] = fn
}

// Validator resolves a named validator unit.
func (r *Registry) Validator(name string) (port.Validator, error) {
	fn, ok := r.validators[name]
	if !ok {
		return nil, fmt.Errorf("%w: validator %q not registered", entity.ErrResolution, name)
	}
	return fn(), nil
}

// RunConverter resolves and executes a named converter unit.
func (r *Registry) RunConverter(ctx context.Context, name string, in port.ConverterInput) (*port.ConverterResult, error) {
	fn, ok := r.converters[name]
	if !ok {
		return nil, fmt.Errorf("%w: converter %q not registered", entity.ErrResolution, name)
	}
	start := time.Now()
	res, err := fn().GenerateResult(ctx, in)
	r.logger.Debug("stage elapsed",
		zap.String("stage", name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, err
}

// RunMatcher resolves and executes a named sample-matcher unit.
func (r *Registry) RunMatcher(ctx context.Context, name string, in port.SampleMatcherInput) (map[int]*port.MatchDescriptor, error) {
	fn, ok := r.matchers[name]
	if !ok {
		return nil, fmt.Errorf("%w: matcher %q not registered", entity.ErrResolution, name)
	}
	start := time.Now()
	res, err := fn().GenerateResult(ctx, in)
	r.logger.Debug("stage elapsed",
		zap.String("stage", name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, err
}

// RunGenerators executes the named generators in order, accumulating their
// contributions into one shared result. Later generators observe earlier
// ones' marks, which is how derived metrics stack on a base runtime metric.
// Resolution is checked for all names before the first generator runs.
func (r *Registry) RunGenerators(ctx context.Context, names []string, in port.GeneratorInput) (*entity.RunResult, error) {
	units := make([]port.Generator, 0, len(names))
	for _, name := range names {
		fn, ok := r.generators[name]
		if !ok {
			return nil, fmt.Errorf("%w: generator %q not registered", entity.ErrResolution, name)
		}
		units = append(units, fn())
	}

	accumulated := &entity.RunResult{}
	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		res, err := unit.GenerateResult(in, accumulated)
		if err != nil {
			return nil, fmt.Errorf("generator %s: %w", names[i], err)
		}
		r.logger.Debug("stage elapsed",
			zap.String("stage", names[i]),
			zap.Duration("elapsed", time.Since(start)),
		)
		accumulated.Merge(res)
	}
	return accumulated, nil
}
