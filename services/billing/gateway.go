package billing

import (
	"context"

	"github.com/VisionVII/smeducacional-sub001/services/stripeclient"
	"github.com/stripe/stripe-go/v81"
)

// SignatureVerifier turns a raw webhook body into a trusted event
type SignatureVerifier interface {
	VerifyWebhookSignature(payload []byte, signatureHeader string) (stripe.Event, error)
}

// PaymentGateway is the subset of the processor client billing depends on.
// *stripeclient.Client implements it.
type PaymentGateway interface {
	SignatureVerifier
	CreateCheckoutSession(ctx context.Context, params stripeclient.CheckoutParams) (*stripe.CheckoutSession, error)
	CreateSubscriptionSession(ctx context.Context, params stripeclient.SubscriptionParams) (*stripe.CheckoutSession, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
	Refund(ctx context.Context, paymentIntentID string) (*stripe.Refund, error)
}

var _ PaymentGateway = (*stripeclient.Client)(nil)
