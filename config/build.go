package config

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jonwraymond/healthrun/health"
	"github.com/jonwraymond/healthrun/observe"
	"github.com/jonwraymond/healthrun/resilience"
	"github.com/jonwraymond/healthrun/secret"
)

// Deps are the collaborators Build wires into runners and checks.
type Deps struct {
	// Kinds builds checks. Default: DefaultKinds()
	Kinds *Kinds

	// Resolver resolves secrets in check options. Default: built from
	// cfg.Secrets with secret.DefaultRegistry.
	Resolver *secret.Resolver

	// Observer instruments every runner. Optional.
	Observer observe.Observer
}

// Stack is a built configuration. Close releases check resources such as
// Redis connections.
type Stack struct {
	Registry *health.Registry
	closers  []io.Closer
}

// Close closes every check that holds resources.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Build constructs every configured runner in order and seals the registry.
// On error, checks built so far are closed.
func Build(ctx context.Context, cfg Config, deps Deps) (*Stack, error) {
	kinds := deps.Kinds
	if kinds == nil {
		kinds = DefaultKinds()
	}
	resolver := deps.Resolver
	if resolver == nil {
		r, err := secret.DefaultRegistry.NewResolverFromConfig(cfg.Secrets.Strict, cfg.Secrets.Providers)
		if err != nil {
			return nil, err
		}
		resolver = r
		defer func() { _ = r.Close() }()
	}

	stack := &Stack{Registry: health.NewRegistry()}
	runners := make(map[string]*health.Runner, len(cfg.Runners))

	for _, rc := range cfg.Runners {
		runner, err := buildRunner(ctx, rc, kinds, resolver, deps.Observer, runners, stack)
		if err != nil {
			_ = stack.Close()
			return nil, fmt.Errorf("runner %q: %w", rc.Name, err)
		}
		if err := stack.Registry.Register(rc.Name, runner); err != nil {
			_ = stack.Close()
			return nil, err
		}
		runners[rc.Name] = runner
	}

	stack.Registry.Seal()
	return stack, nil
}

func buildRunner(
	ctx context.Context,
	rc RunnerConfig,
	kinds *Kinds,
	resolver *secret.Resolver,
	obs observe.Observer,
	runners map[string]*health.Runner,
	stack *Stack,
) (*health.Runner, error) {
	policy, err := health.ParsePolicy(rc.Policy)
	if err != nil {
		return nil, err
	}

	checkers := make([]health.Checker, 0, len(rc.Checks))
	for _, cc := range rc.Checks {
		c, err := buildCheck(ctx, cc, kinds, resolver, runners)
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", cc.Name, err)
		}
		if closer, ok := c.(io.Closer); ok {
			stack.closers = append(stack.closers, closer)
		}
		checkers = append(checkers, wrapCheck(c, cc))
	}

	return health.NewRunner(rc.Name, health.RunnerConfig{
		Policy:         policy,
		Timeout:        rc.Timeout,
		MaxConcurrency: rc.MaxConcurrency,
		Observer:       obs,
	}, checkers...)
}

func buildCheck(
	ctx context.Context,
	cc CheckConfig,
	kinds *Kinds,
	resolver *secret.Resolver,
	runners map[string]*health.Runner,
) (health.Checker, error) {
	resolved, err := resolver.ResolveAny(ctx, cc.Options)
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	options, _ := resolved.(map[string]any)

	return kinds.Create(ctx, CheckSpec{
		Name:    cc.Name,
		Kind:    cc.Kind,
		Timeout: cc.Timeout,
		Options: options,
		Runners: runners,
	})
}

// wrapCheck applies retry, then the circuit breaker, then the timeout, so a
// timeout bounds every retry attempt together.
func wrapCheck(c health.Checker, cc CheckConfig) health.Checker {
	if cc.Retry != nil {
		c = resilience.WithRetry(c, cc.Retry.resilience())
	}
	if cc.Circuit != nil {
		c = resilience.WithCircuitBreaker(c, cc.Circuit.resilience())
	}
	if cc.Timeout > 0 {
		c = health.WithTimeout(c, cc.Timeout)
	}
	return c
}
