package skill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/couchcryptid/weather-skill-service/internal/observability"
)

// Responder produces the utterance for a matched request. A returned error
// sends the request down the exception path.
type Responder func(ctx context.Context, req domain.Request) (domain.Utterance, error)

// ExceptionResponder produces the utterance for a request whose dispatch failed.
type ExceptionResponder func(ctx context.Context, req domain.Request, err error) domain.Utterance

// Rule pairs a matcher with the responder it guards.
type Rule struct {
	Kind    domain.RequestKind
	Match   Matcher
	Respond Responder
}

// ExceptionRule handles failed dispatches. Match sees the request and the
// *domain.DispatchError.
type ExceptionRule struct {
	Name    string
	Match   func(req domain.Request, err error) bool
	Respond ExceptionResponder
}

// Outcome is the result of one dispatch.
type Outcome struct {
	Kind      domain.RequestKind
	Utterance domain.Utterance
	Err       error // *domain.DispatchError when the exception path answered
}

// Failed reports whether the exception path produced the utterance.
func (o Outcome) Failed() bool { return o.Err != nil }

// Chain evaluates rules in registration order and invokes the first match.
// Rules are fixed at construction and the chain is safe for concurrent use.
type Chain struct {
	rules      []Rule
	exceptions []ExceptionRule
	fallback   domain.Utterance
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewChain creates a dispatch chain. Order matters: a broad matcher placed
// before a specific one shadows it. fallback is spoken if no exception rule
// matches a failure.
func NewChain(rules []Rule, exceptions []ExceptionRule, fallback domain.Utterance, logger *slog.Logger, metrics *observability.Metrics) *Chain {
	return &Chain{
		rules:      append([]Rule(nil), rules...),
		exceptions: append([]ExceptionRule(nil), exceptions...),
		fallback:   fallback,
		logger:     logger,
		metrics:    metrics,
	}
}

// Kinds returns the request kinds in evaluation order.
func (c *Chain) Kinds() []domain.RequestKind {
	kinds := make([]domain.RequestKind, len(c.rules))
	for i, r := range c.rules {
		kinds[i] = r.Kind
	}
	return kinds
}

// Classify returns the kind of the first rule matching req.
func (c *Chain) Classify(req domain.Request) (domain.RequestKind, bool) {
	if i := c.match(req); i >= 0 {
		return c.rules[i].Kind, true
	}
	return domain.KindUnknown, false
}

// Dispatch returns the utterance for req. It always returns exactly one
// utterance; failures are answered by the exception rules.
func (c *Chain) Dispatch(ctx context.Context, req domain.Request) domain.Utterance {
	return c.Run(ctx, req).Utterance
}

// Run dispatches req and reports which kind answered it.
func (c *Chain) Run(ctx context.Context, req domain.Request) Outcome {
	i := c.match(req)
	if i < 0 {
		err := &domain.DispatchError{Kind: domain.KindUnknown, Err: domain.ErrNoMatch}
		return c.fail(ctx, req, err)
	}

	rule := c.rules[i]
	utt, err := c.invoke(ctx, rule, req)
	if err != nil {
		return c.fail(ctx, req, &domain.DispatchError{Kind: rule.Kind, Err: err})
	}

	c.metrics.Requests.WithLabelValues(rule.Kind.String()).Inc()
	return Outcome{Kind: rule.Kind, Utterance: utt}
}

func (c *Chain) match(req domain.Request) int {
	for i, r := range c.rules {
		if r.Match(req) {
			return i
		}
	}
	return -1
}

// invoke calls the responder, converting a panic into an error.
func (c *Chain) invoke(ctx context.Context, rule Rule, req domain.Request) (utt domain.Utterance, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("responder panic: %v", p)
		}
	}()
	return rule.Respond(ctx, req)
}

func (c *Chain) fail(ctx context.Context, req domain.Request, derr *domain.DispatchError) Outcome {
	c.metrics.Requests.WithLabelValues(derr.Kind.String()).Inc()
	c.metrics.DispatchFailures.Inc()

	for _, ex := range c.exceptions {
		if !ex.Match(req, derr) {
			continue
		}
		utt, ok := c.recoverException(ctx, ex, req, derr)
		if ok {
			return Outcome{Kind: derr.Kind, Utterance: utt, Err: derr}
		}
		break
	}

	c.logger.Error("unhandled dispatch failure",
		"error", derr,
		"request_id", req.ID,
		"request_type", req.Type,
		"intent", req.IntentName,
	)
	return Outcome{Kind: derr.Kind, Utterance: c.fallback, Err: derr}
}

// recoverException runs an exception responder; a panic there falls through
// to the chain's fallback utterance.
func (c *Chain) recoverException(ctx context.Context, ex ExceptionRule, req domain.Request, derr error) (utt domain.Utterance, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("exception handler panic", "handler", ex.Name, "panic", fmt.Sprint(p))
			ok = false
		}
	}()
	return ex.Respond(ctx, req, derr), true
}

// CatchAll returns the exception rule that matches every failure, logs the
// cause, and answers with the composer's exception utterance.
func CatchAll(composer Composer, logger *slog.Logger) ExceptionRule {
	return ExceptionRule{
		Name:  "catch_all",
		Match: func(domain.Request, error) bool { return true },
		Respond: func(_ context.Context, req domain.Request, err error) domain.Utterance {
			attrs := []any{
				"error", err,
				"request_id", req.ID,
				"request_type", req.Type,
				"intent", req.IntentName,
			}
			if errors.Is(err, domain.ErrNoMatch) {
				logger.Warn("no handler for request", attrs...)
			} else {
				logger.Error("request handler failed", attrs...)
			}
			return composer.Exception()
		},
	}
}
