package billing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/VisionVII/smeducacional-sub001/database/dbtest"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/repository"
	"github.com/VisionVII/smeducacional-sub001/services/stripeclient"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_billing_test"

type recordingNotifier struct {
	mu       sync.Mutex
	messages []WelcomeMessage
	err      error
}

func (n *recordingNotifier) NotifyCoursePurchase(_ context.Context, msg WelcomeMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

func (n *recordingNotifier) sent() []WelcomeMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]WelcomeMessage(nil), n.messages...)
}

type fixture struct {
	db       *gorm.DB
	repos    *repository.Repositories
	notifier *recordingNotifier
	service  *WebhookService

	student    *model.User
	teacher    *model.User
	course     *model.Course
	freeCourse *model.Course
}

// newFixture seeds a student, an instructor and a 100.00 course owned by the instructor
func newFixture(t *testing.T, opts ...WebhookOption) *fixture {
	t.Helper()
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	t.Setenv("PLATFORM_FEE_PERCENT", "")
	t.Setenv("PAYMENT_CURRENCY", "")
	t.Setenv("SYSTEM_ACTOR_ID", "")
	t.Setenv("APP_URL", "https://app.test")

	db := dbtest.Open(t)
	repos := repository.New(db)
	notifier := &recordingNotifier{}

	f := &fixture{
		db:       db,
		repos:    repos,
		notifier: notifier,
		service:  NewWebhookService(repos, stripeclient.New(), notifier, opts...),
		student:  &model.User{Email: "aluno@example.com", Name: "Aluno", Role: model.RoleStudent},
		teacher:  &model.User{Email: "prof@example.com", Name: "Professora", Role: model.RoleTeacher},
	}
	require.NoError(t, db.Create(f.student).Error)
	require.NoError(t, db.Create(f.teacher).Error)

	f.course = f.createCourse(t, "go-basics", 100, &f.teacher.ID)
	f.freeCourse = f.createCourse(t, "orphan-course", 80, nil)
	return f
}

func (f *fixture) createCourse(t *testing.T, slug string, price float64, instructorID *string) *model.Course {
	t.Helper()
	course := &model.Course{
		Title:        "Course " + slug,
		Slug:         slug,
		Price:        price,
		InstructorID: instructorID,
		IsPublished:  true,
	}
	require.NoError(t, f.db.Create(course).Error)
	return course
}

func eventPayload(t *testing.T, id string, eventType string, object map[string]interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": stripe.APIVersion,
		"created":     time.Now().Unix(),
		"livemode":    false,
		"data":        map[string]interface{}{"object": object},
	})
	require.NoError(t, err)
	return payload
}

func checkoutObject(sessionID, paymentIntent string, amountMinor int64, metadata map[string]string) map[string]interface{} {
	return map[string]interface{}{
		"id":             sessionID,
		"object":         "checkout.session",
		"mode":           "payment",
		"status":         "complete",
		"payment_status": "paid",
		"amount_total":   amountMinor,
		"currency":       "brl",
		"payment_intent": paymentIntent,
		"customer":       "cus_123",
		"metadata":       metadata,
	}
}

func subscriptionObject(subscriptionID string, metadata map[string]string) map[string]interface{} {
	return map[string]interface{}{
		"id":       subscriptionID,
		"object":   "subscription",
		"status":   "canceled",
		"metadata": metadata,
	}
}

func signPayload(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	}).Header
}

func (f *fixture) deliver(t *testing.T, payload []byte) WebhookResult {
	t.Helper()
	return f.service.HandleWebhook(t.Context(), payload, signPayload(payload, testWebhookSecret))
}

func (f *fixture) count(t *testing.T, value interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(value)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (f *fixture) processed(t *testing.T, eventID string) bool {
	t.Helper()
	return f.count(t, &model.ProcessedWebhookEvent{}, "event_id = ?", eventID) == 1
}

// fakeGateway records outbound calls and serves canned sessions
type fakeGateway struct {
	mu sync.Mutex

	checkoutParams     []stripeclient.CheckoutParams
	subscriptionParams []stripeclient.SubscriptionParams
	cancelled          []string
	refunded           []string
	sessions           map[string]*stripe.CheckoutSession
	err                error
}

var errGatewayDown = errors.New("gateway unavailable")

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*stripe.CheckoutSession{}}
}

func (g *fakeGateway) VerifyWebhookSignature([]byte, string) (stripe.Event, error) {
	return stripe.Event{}, stripeclient.ErrInvalidSignature
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p stripeclient.CheckoutParams) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.checkoutParams = append(g.checkoutParams, p)
	return &stripe.CheckoutSession{ID: "cs_course_1", URL: "https://checkout.stripe.test/cs_course_1"}, nil
}

func (g *fakeGateway) CreateSubscriptionSession(_ context.Context, p stripeclient.SubscriptionParams) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.subscriptionParams = append(g.subscriptionParams, p)
	return &stripe.CheckoutSession{ID: "cs_sub_1", URL: "https://checkout.stripe.test/cs_sub_1"}, nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, subscriptionID string) (*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, subscriptionID)
	return &stripe.Subscription{ID: subscriptionID, Status: stripe.SubscriptionStatusCanceled}, nil
}

func (g *fakeGateway) RetrieveCheckoutSession(_ context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, errGatewayDown
	}
	return session, nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentIntentID string) (*stripe.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.refunded = append(g.refunded, paymentIntentID)
	return &stripe.Refund{ID: "re_" + paymentIntentID, Status: stripe.RefundStatusSucceeded}, nil
}
