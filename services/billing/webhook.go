package billing

import (
	"context"
	"errors"
	"time"

	"github.com/VisionVII/smeducacional-sub001/repository"
	"github.com/VisionVII/smeducacional-sub001/services/stripeclient"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v81"
)

const (
	eventLockTTL   = 30 * time.Second
	archiveTimeout = 30 * time.Second
)

// WebhookResult is the HTTP status and JSON body returned to the processor
type WebhookResult struct {
	Status int
	Body   map[string]interface{}
}

// EventLocker is a short-lived lock keyed by event id. *cache.RedisCache implements it.
type EventLocker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// EventArchiver keeps a copy of verified raw payloads
type EventArchiver interface {
	ArchiveWebhookEvent(ctx context.Context, eventID, eventType string, payload []byte) error
}

// WebhookOption customises a WebhookService
type WebhookOption func(*WebhookService)

// WithEventLocker rejects concurrent deliveries of the same event while one is in flight
func WithEventLocker(locker EventLocker) WebhookOption {
	return func(s *WebhookService) { s.locker = locker }
}

// WithEventArchiver archives every newly processed payload in the background
func WithEventArchiver(archiver EventArchiver) WebhookOption {
	return func(s *WebhookService) { s.archiver = archiver }
}

// WebhookService is the webhook entry point: verify, deduplicate, dispatch, mark.
type WebhookService struct {
	verifier     SignatureVerifier
	guard        *IdempotencyGuard
	checkout     *CheckoutCompletedHandler
	cancellation *SubscriptionCancelledHandler
	locker       EventLocker
	archiver     EventArchiver
}

func NewWebhookService(repos *repository.Repositories, verifier SignatureVerifier, notifier WelcomeNotifier, opts ...WebhookOption) *WebhookService {
	s := &WebhookService{
		verifier:     verifier,
		guard:        NewIdempotencyGuard(repos),
		checkout:     NewCheckoutCompletedHandler(repos, notifier),
		cancellation: NewSubscriptionCancelledHandler(repos),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func received(extra map[string]interface{}) WebhookResult {
	body := map[string]interface{}{"received": true}
	for k, v := range extra {
		body[k] = v
	}
	return WebhookResult{Status: fiber.StatusOK, Body: body}
}

func failure(status int, message string) WebhookResult {
	return WebhookResult{Status: status, Body: map[string]interface{}{"error": message}}
}

// HandleWebhook processes one delivery. payload must be the exact request body.
func (s *WebhookService) HandleWebhook(ctx context.Context, payload []byte, signature string) WebhookResult {
	event, err := s.verifier.VerifyWebhookSignature(payload, signature)
	if err != nil {
		if errors.Is(err, stripeclient.ErrInvalidSignature) {
			log.Warnw("[Webhook] signature verification failed", "error", err)
			return failure(fiber.StatusBadRequest, "invalid signature")
		}
		log.Errorw("[Webhook] verifier misconfigured", "error", err)
		return failure(fiber.StatusInternalServerError, "webhook verification unavailable")
	}

	log.Infow("[Webhook] received verified event", "event_id", event.ID, "type", event.Type, "livemode", event.Livemode)

	if s.locker != nil {
		key := "webhook:lock:" + event.ID
		acquired, err := s.locker.SetNX(ctx, key, "1", eventLockTTL)
		switch {
		case err != nil:
			log.Warnw("[Webhook] event lock unavailable, continuing without it", "event_id", event.ID, "error", err)
		case !acquired:
			log.Warnw("[Webhook] event already in flight", "event_id", event.ID)
			return failure(fiber.StatusInternalServerError, "event is already being processed")
		default:
			defer func() {
				if err := s.locker.Delete(context.WithoutCancel(ctx), key); err != nil {
					log.Warnw("[Webhook] failed to release event lock", "event_id", event.ID, "error", err)
				}
			}()
		}
	}

	processed, err := s.guard.HasProcessedEvent(ctx, event.ID)
	if err != nil {
		log.Errorw("[Webhook] idempotency check failed", "event_id", event.ID, "error", err)
		return failure(fiber.StatusInternalServerError, "webhook processing failed")
	}
	if processed {
		log.Infow("[Webhook] duplicate event acknowledged", "event_id", event.ID)
		return received(map[string]interface{}{"duplicate": true})
	}

	actorID, handled, err := s.dispatch(ctx, event)
	if err != nil {
		log.Errorw("[Webhook] processing failed", "event_id", event.ID, "type", event.Type, "error", err)
		return failure(fiber.StatusInternalServerError, "webhook processing failed")
	}

	if err := s.guard.MarkEventProcessed(ctx, ProcessedMarker{
		EventID:   event.ID,
		EventType: string(event.Type),
		UserID:    actorID,
		Metadata: map[string]interface{}{
			"livemode": event.Livemode,
			"handled":  handled,
		},
	}); err != nil {
		log.Errorw("[Webhook] failed to mark event processed", "event_id", event.ID, "error", err)
		return failure(fiber.StatusInternalServerError, "webhook processing failed")
	}

	s.archive(event, payload)
	return received(nil)
}

// dispatch routes a verified event and reports the acting user and whether
// the type had a handler
func (s *WebhookService) dispatch(ctx context.Context, event stripe.Event) (string, bool, error) {
	switch EventType(event.Type) {
	case EventCheckoutSessionCompleted:
		actor, err := s.checkout.Handle(ctx, event)
		return actor, true, err
	case EventCustomerSubscriptionDeleted:
		actor, err := s.cancellation.Handle(ctx, event)
		return actor, true, err
	default:
		log.Infow("[Webhook] unhandled event type", "event_id", event.ID, "type", event.Type)
		return "", false, nil
	}
}

func (s *WebhookService) archive(event stripe.Event, payload []byte) {
	if s.archiver == nil {
		return
	}

	raw := append([]byte(nil), payload...)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		if err := s.archiver.ArchiveWebhookEvent(ctx, event.ID, string(event.Type), raw); err != nil {
			log.Warnw("[Webhook] failed to archive payload", "event_id", event.ID, "error", err)
		}
	}()
}
