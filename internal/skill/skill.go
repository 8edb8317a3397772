package skill

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/couchcryptid/weather-skill-service/internal/observability"
)

// errNoClient is returned as a fetch failure when a weather-dependent
// composer runs without a client.
var errNoClient = errors.New("weather client not configured")

// Skill answers voice requests about the weather at one fixed location.
type Skill struct {
	chain    *Chain
	client   domain.WeatherClient
	composer Composer
	at       domain.Coordinates
	logger   *slog.Logger
}

// New builds the skill and its dispatch chain. client may be nil when the
// composer does not need weather data.
func New(client domain.WeatherClient, composer Composer, at domain.Coordinates, logger *slog.Logger, metrics *observability.Metrics) *Skill {
	s := &Skill{
		client:   client,
		composer: composer,
		at:       at,
		logger:   logger,
	}
	s.chain = NewChain(s.rules(), []ExceptionRule{CatchAll(composer, logger)}, composer.Exception(), logger, metrics)
	return s
}

// rules is the handler chain in evaluation order. The intent reflector must
// stay last among the intent matchers or it would shadow the specific ones.
func (s *Skill) rules() []Rule {
	c := s.composer
	return []Rule{
		{Kind: domain.KindLaunch, Match: IsRequestType(domain.RequestTypeLaunch), Respond: constant(c.Launch)},
		{Kind: domain.KindGreeting, Match: IsIntentName(GreetingIntents...), Respond: s.withWeather(c.Greeting)},
		{Kind: domain.KindWeatherQuery, Match: IsIntentName(WeatherIntents...), Respond: s.withWeather(c.WeatherDescription)},
		{Kind: domain.KindTemperatureQuery, Match: IsIntentName(TemperatureIntents...), Respond: s.withWeather(c.Temperature)},
		{Kind: domain.KindClothingQuery, Match: IsIntentName(ClothingIntents...), Respond: constant(c.Clothing)},
		{Kind: domain.KindMiscQuery, Match: IsIntentName(MiscIntents...), Respond: constant(c.Misc)},
		{Kind: domain.KindHelp, Match: IsIntentName(HelpIntents...), Respond: constant(c.Help)},
		{Kind: domain.KindCancelOrStop, Match: IsIntentName(CancelOrStopIntents...), Respond: constant(c.CancelOrStop)},
		{Kind: domain.KindFallback, Match: IsIntentName(FallbackIntents...), Respond: s.logged("fallback intent", c.Fallback)},
		{Kind: domain.KindSessionEnded, Match: IsRequestType(domain.RequestTypeSessionEnded), Respond: constant(c.SessionEnded)},
		{Kind: domain.KindUnrecognizedIntent, Match: IsRequestType(domain.RequestTypeIntent), Respond: s.reflect},
	}
}

// Handle dispatches one request. It never fails.
func (s *Skill) Handle(ctx context.Context, req domain.Request) Outcome {
	return s.chain.Run(ctx, req)
}

// Dispatch returns only the utterance for req.
func (s *Skill) Dispatch(ctx context.Context, req domain.Request) domain.Utterance {
	return s.chain.Dispatch(ctx, req)
}

// Chain exposes the dispatch chain, mainly for ordering checks.
func (s *Skill) Chain() *Chain { return s.chain }

// CheckReadiness delegates to the weather client when it tracks readiness.
func (s *Skill) CheckReadiness(ctx context.Context) error {
	if rc, ok := s.client.(interface{ CheckReadiness(context.Context) error }); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

func constant(f func() domain.Utterance) Responder {
	return func(context.Context, domain.Request) (domain.Utterance, error) {
		return f(), nil
	}
}

func (s *Skill) logged(msg string, f func() domain.Utterance) Responder {
	return func(_ context.Context, req domain.Request) (domain.Utterance, error) {
		s.logger.Info(msg, "request_id", req.ID)
		return f(), nil
	}
}

// withWeather fetches a fresh snapshot for every request and hands the
// result, success or failure, to the composer.
func (s *Skill) withWeather(compose func(domain.WeatherSnapshot, error) domain.Utterance) Responder {
	return func(ctx context.Context, _ domain.Request) (domain.Utterance, error) {
		if !s.composer.NeedsWeather() {
			return compose(domain.WeatherSnapshot{}, nil), nil
		}
		if s.client == nil {
			return compose(domain.WeatherSnapshot{}, &domain.FetchError{Err: errNoClient}), nil
		}
		snap, err := s.client.Fetch(ctx, s.at)
		return compose(snap, err), nil
	}
}

func (s *Skill) reflect(_ context.Context, req domain.Request) (domain.Utterance, error) {
	return s.composer.Reflect(req.IntentName), nil
}
