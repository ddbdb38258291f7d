package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"homerent/internal/metrics"
)

type SessionStatus string

const (
	SessionOpen     SessionStatus = "open"
	SessionComplete SessionStatus = "complete"
	SessionExpired  SessionStatus = "expired"
)

// Session - внешняя checkout-сессия провайдера
type Session struct {
	ID     string
	URL    string
	Status SessionStatus
}

type CheckoutConfig struct {
	SecretKey  string
	Currency   string
	SuccessURL string
	CancelURL  string
	Timeout    time.Duration
}

// sessionAPI is the subset of the Stripe checkout sessions client we call
type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Expire(id string, params *stripe.CheckoutSessionExpireParams) (*stripe.CheckoutSession, error)
}

type CheckoutClient struct {
	sessions   sessionAPI
	cb         *gobreaker.CircuitBreaker
	currency   string
	successURL string
	cancelURL  string
}

func NewCheckoutClient(cfg CheckoutConfig) *CheckoutClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	sc := client.New(cfg.SecretKey, stripe.NewBackends(&http.Client{Timeout: cfg.Timeout}))
	return newCheckoutClient(sc.CheckoutSessions, cfg)
}

func newCheckoutClient(sessions sessionAPI, cfg CheckoutConfig) *CheckoutClient {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &CheckoutClient{
		sessions:   sessions,
		cb:         circuitBreaker("stripe-checkout"),
		currency:   cfg.Currency,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

func circuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(
		gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				slog.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
			// 4xx от провайдера - ошибка запроса, а не недоступность
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				var stripeErr *stripe.Error
				return errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500
			},
		},
	)
}

// CreateSession opens a one-line-item payment session for amount in the configured currency
func (c *CheckoutClient) CreateSession(ctx context.Context, amount decimal.Decimal, description string) (*Session, error) {
	start := time.Now()
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(c.currency),
					UnitAmount: stripe.Int64(toMinorUnits(amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.sessions.New(params)
	})
	metrics.ObserveProviderCall("create_session", start, err)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s, ok := result.(*stripe.CheckoutSession)
	if !ok || s == nil || s.ID == "" {
		return nil, errors.New("create checkout session: empty response")
	}
	if !validSessionURL(s.URL) {
		return nil, fmt.Errorf("checkout session %s has invalid url %q", s.ID, s.URL)
	}

	return &Session{ID: s.ID, URL: s.URL, Status: SessionStatus(s.Status)}, nil
}

func (c *CheckoutClient) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	start := time.Now()
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.sessions.Get(sessionID, params)
	})
	metrics.ObserveProviderCall("retrieve_session", start, err)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}

	s, ok := result.(*stripe.CheckoutSession)
	if !ok || s == nil {
		return nil, fmt.Errorf("retrieve checkout session %s: empty response", sessionID)
	}
	return &Session{ID: s.ID, URL: s.URL, Status: SessionStatus(s.Status)}, nil
}

// ExpireSession closes an open session so its URL can no longer be paid.
// The provider rejects sessions that are already complete or expired.
func (c *CheckoutClient) ExpireSession(ctx context.Context, sessionID string) error {
	start := time.Now()
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	_, err := c.cb.Execute(func() (interface{}, error) {
		return c.sessions.Expire(sessionID, params)
	})
	metrics.ObserveProviderCall("expire_session", start, err)
	if err != nil {
		return fmt.Errorf("expire checkout session %s: %w", sessionID, err)
	}
	return nil
}

func validSessionURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}

// toMinorUnits converts 12.34 to 1234
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
