// Package stripeclient is the thin payment processor client used by billing.
// A stripe-go API client is built per call from the current configuration,
// so the type carries no state beyond its options.
package stripeclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

// ErrInvalidSignature is returned for any webhook payload that fails verification
var ErrInvalidSignature = errors.New("invalid webhook signature")

// CheckoutParams describes a one-off course purchase
type CheckoutParams struct {
	CustomerEmail string
	ProductName   string
	AmountMinor   int64 // smallest currency unit
	Currency      string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// SubscriptionParams describes a recurring plan purchase for an existing processor price
type SubscriptionParams struct {
	CustomerEmail string
	PriceID       string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type Client struct {
	backends *stripe.Backends
}

// New returns a client using the default stripe-go backends
func New() *Client {
	return &Client{}
}

// NewWithBackends points the client at custom backends (stripe-mock in tests)
func NewWithBackends(backends *stripe.Backends) *Client {
	return &Client{backends: backends}
}

func (c *Client) api() (*client.API, error) {
	key, err := config.StripeSecretKey()
	if err != nil {
		return nil, err
	}
	return client.New(key, c.backends), nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*stripe.CheckoutSession, error) {
	sc, err := c.api()
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(p.CustomerEmail),
		SuccessURL:    stripe.String(p.SuccessURL),
		CancelURL:     stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: p.Metadata,
		},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := sc.CheckoutSessions.New(params)
	if err != nil {
		log.Errorw("[Stripe] checkout session creation failed", "error", err)
		return nil, fmt.Errorf("stripe API error: %w", err)
	}
	return session, nil
}

func (c *Client) CreateSubscriptionSession(ctx context.Context, p SubscriptionParams) (*stripe.CheckoutSession, error) {
	sc, err := c.api()
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(p.CustomerEmail),
		SuccessURL:    stripe.String(p.SuccessURL),
		CancelURL:     stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		// copied onto the subscription so customer.subscription.* events carry it
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: p.Metadata,
		},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := sc.CheckoutSessions.New(params)
	if err != nil {
		log.Errorw("[Stripe] subscription session creation failed", "error", err)
		return nil, fmt.Errorf("stripe API error: %w", err)
	}
	return session, nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	sc, err := c.api()
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	sub, err := sc.Subscriptions.Cancel(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe API error: %w", err)
	}
	return sub, nil
}

func (c *Client) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	sc, err := c.api()
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe API error: %w", err)
	}
	return session, nil
}

func (c *Client) Refund(ctx context.Context, paymentIntentID string) (*stripe.Refund, error) {
	sc, err := c.api()
	if err != nil {
		return nil, err
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx

	refund, err := sc.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe API error: %w", err)
	}
	return refund, nil
}

// VerifyWebhookSignature checks the signature header against the exact bytes
// received and returns the decoded event.
func (c *Client) VerifyWebhookSignature(payload []byte, signatureHeader string) (stripe.Event, error) {
	secret, err := config.StripeWebhookSecret()
	if err != nil {
		return stripe.Event{}, err
	}

	// IgnoreAPIVersionMismatch lets the Stripe CLI and older endpoints deliver to us
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}
