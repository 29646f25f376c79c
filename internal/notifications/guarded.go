package notifications

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/polymarket-risk/internal/clock"
	rerrors "github.com/ducminhle1904/polymarket-risk/internal/errors"
	"github.com/ducminhle1904/polymarket-risk/internal/safety"
)

// GuardConfig controls retries, throttling and the circuit breaker around an
// alert channel.
type GuardConfig struct {
	Attempts    int           // delivery attempts per alert, including the first
	Backoff     time.Duration // wait before retry n is n*Backoff
	Burst       int           // alerts allowed back to back
	RefillEvery time.Duration // one more alert allowed per interval
	Breaker     safety.CircuitBreakerConfig
	Clock       clock.Clock
	Sleep       func(time.Duration)
}

// DefaultGuardConfig keeps well inside the Telegram Bot API limits.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Attempts:    3,
		Backoff:     time.Second,
		Burst:       5,
		RefillEvery: 3 * time.Second,
		Breaker: safety.CircuitBreakerConfig{
			FailureThreshold: 3,
			SuccessThreshold: 1,
			Timeout:          2 * time.Minute,
		},
	}
}

// GuardedNotifier wraps a Notifier with a token bucket, retries for
// retryable failures and a circuit breaker.
type GuardedNotifier struct {
	name     string
	next     Notifier
	breaker  *safety.CircuitBreaker
	limiter  *safety.RateLimiter
	attempts int
	backoff  time.Duration
	sleep    func(time.Duration)
	log      zerolog.Logger
}

func NewGuardedNotifier(name string, next Notifier, cfg GuardConfig, log zerolog.Logger) *GuardedNotifier {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	g := &GuardedNotifier{
		name:     name,
		next:     next,
		breaker:  safety.NewCircuitBreaker(name, cfg.Breaker, cfg.Clock),
		limiter:  safety.NewRateLimiter(cfg.Burst, cfg.RefillEvery, cfg.Clock),
		attempts: cfg.Attempts,
		backoff:  cfg.Backoff,
		sleep:    cfg.Sleep,
		log:      log.With().Str("channel", name).Logger(),
	}
	g.breaker.SetStateChangeCallback(func(from, to safety.CircuitBreakerState) {
		g.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Alert circuit breaker state changed")
	})
	return g
}

// BreakerState reports the state of the channel's circuit breaker.
func (g *GuardedNotifier) BreakerState() safety.CircuitBreakerState {
	return g.breaker.State()
}

func (g *GuardedNotifier) SendAlert(level, message string) error {
	if !g.limiter.Allow() {
		return rerrors.NewRiskError(rerrors.ErrorCategoryNetwork, g.name, "send_alert", "alert rate limit exceeded").
			WithRetryable(false)
	}

	var err error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		err = g.breaker.Call(func() error { return g.next.SendAlert(level, message) })
		if err == nil {
			return nil
		}
		re, ok := rerrors.As(err)
		if !ok || re.GetRecoveryAction() != rerrors.RecoveryActionRetry || attempt == g.attempts {
			break
		}
		wait := g.backoff * time.Duration(attempt)
		g.log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("Alert delivery failed, retrying")
		g.sleep(wait)
	}
	return err
}
