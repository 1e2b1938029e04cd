package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseMetadata(f *fixture, course *model.Course) map[string]string {
	return map[string]string{"userId": f.student.ID, "courseId": course.ID}
}

func TestCheckoutCompletedRecordsSaleAndSplit(t *testing.T) {
	f := newFixture(t)

	payload := eventPayload(t, "evt_course_1", "checkout.session.completed",
		checkoutObject("cs_1", "pi_1", 10000, courseMetadata(f, f.course)))
	res := f.deliver(t, payload)

	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Equal(t, true, res.Body["received"])
	assert.NotContains(t, res.Body, "duplicate")

	var payment model.Payment
	require.NoError(t, f.db.Where("stripe_payment_id = ?", "pi_1").First(&payment).Error)
	assert.Equal(t, f.student.ID, payment.UserID)
	assert.Equal(t, f.course.ID, *payment.CourseID)
	assert.InDelta(t, 100.0, payment.Amount, 0.001)
	assert.Equal(t, "BRL", payment.Currency)
	assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, model.PaymentTypeCourse, payment.Type)
	assert.True(t, payment.IsTest)

	enrollment, err := f.repos.Enrollments.Find(t.Context(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusActive, enrollment.Status)

	payouts, err := f.repos.Payouts.ListByTeacher(t.Context(), f.teacher.ID)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.InDelta(t, 70.0, payouts[0].Amount, 0.001)
	assert.Equal(t, payment.ID, payouts[0].PaymentID)
	assert.Equal(t, model.PayoutStatusPending, payouts[0].Status)

	var audit model.AuditLog
	require.NoError(t, f.db.Where("action = ? AND target_id = ?", model.AuditActionPaymentCreated, payment.ID).First(&audit).Error)
	assert.Equal(t, f.student.ID, audit.UserID)
	assert.Contains(t, string(audit.Metadata), `"platformFee":30`)
	assert.Contains(t, string(audit.Metadata), `"instructorNet":70`)

	assert.True(t, f.processed(t, "evt_course_1"))
	assert.EqualValues(t, 1, f.count(t, &model.AuditLog{}, "action = ? AND target_id = ?", model.AuditActionWebhookProcessed, "evt_course_1"))

	sent := f.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, f.student.Email, sent[0].Email)
	assert.Equal(t, "https://app.test/courses/go-basics", sent[0].CourseURL)
	assert.Equal(t, payment.ID, sent[0].PaymentID)
}

func TestCheckoutCompletedReplayIsAcknowledgedOnce(t *testing.T) {
	f := newFixture(t)

	payload := eventPayload(t, "evt_replay", "checkout.session.completed",
		checkoutObject("cs_replay", "pi_replay", 10000, courseMetadata(f, f.course)))

	first := f.deliver(t, payload)
	require.Equal(t, fiber.StatusOK, first.Status)

	second := f.deliver(t, payload)
	require.Equal(t, fiber.StatusOK, second.Status)
	assert.Equal(t, true, second.Body["duplicate"])

	assert.EqualValues(t, 1, f.count(t, &model.Payment{}, ""))
	assert.EqualValues(t, 1, f.count(t, &model.Payout{}, ""))
	assert.EqualValues(t, 1, f.count(t, &model.AuditLog{}, "action = ?", model.AuditActionPaymentCreated))
	assert.Len(t, f.notifier.sent(), 1)
}

func TestCheckoutCompletedRedeliveredUnderNewEventID(t *testing.T) {
	f := newFixture(t)
	session := checkoutObject("cs_same", "pi_same", 10000, courseMetadata(f, f.course))

	require.Equal(t, fiber.StatusOK, f.deliver(t, eventPayload(t, "evt_a", "checkout.session.completed", session)).Status)
	require.Equal(t, fiber.StatusOK, f.deliver(t, eventPayload(t, "evt_b", "checkout.session.completed", session)).Status)

	assert.True(t, f.processed(t, "evt_a"))
	assert.True(t, f.processed(t, "evt_b"))
	assert.EqualValues(t, 1, f.count(t, &model.Payment{}, ""))
	assert.EqualValues(t, 1, f.count(t, &model.Payout{}, ""))
	assert.EqualValues(t, 1, f.count(t, &model.Enrollment{}, ""))
	assert.Len(t, f.notifier.sent(), 1)
}

func TestCheckoutCompletedUsesStoredCoursePrice(t *testing.T) {
	f := newFixture(t)

	// the session claims one cent was charged
	payload := eventPayload(t, "evt_price", "checkout.session.completed",
		checkoutObject("cs_price", "pi_price", 1, courseMetadata(f, f.course)))
	require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)

	payment, err := f.repos.Payments.FindByStripeID(t.Context(), "pi_price")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, payment.Amount, 0.001)

	payouts, err := f.repos.Payouts.ListByTeacher(t.Context(), f.teacher.ID)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.InDelta(t, 70.0, payouts[0].Amount, 0.001)
}

func TestCheckoutCompletedUsesCourseCurrency(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(f.course).Update("currency", "usd").Error)

	// the session reports brl
	payload := eventPayload(t, "evt_currency", "checkout.session.completed",
		checkoutObject("cs_currency", "pi_currency", 10000, courseMetadata(f, f.course)))
	require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)

	payment, err := f.repos.Payments.FindByStripeID(t.Context(), "pi_currency")
	require.NoError(t, err)
	assert.Equal(t, "USD", payment.Currency)

	payouts, err := f.repos.Payouts.ListByTeacher(t.Context(), f.teacher.ID)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, "USD", payouts[0].Currency)
}

func TestCheckoutCompletedPayoutThreshold(t *testing.T) {
	t.Run("course without instructor", func(t *testing.T) {
		f := newFixture(t)
		payload := eventPayload(t, "evt_orphan", "checkout.session.completed",
			checkoutObject("cs_orphan", "pi_orphan", 8000, courseMetadata(f, f.freeCourse)))

		require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)
		assert.EqualValues(t, 1, f.count(t, &model.Payment{}, ""))
		assert.EqualValues(t, 0, f.count(t, &model.Payout{}, ""))
	})

	t.Run("platform keeps everything", func(t *testing.T) {
		f := newFixture(t)
		t.Setenv("PLATFORM_FEE_PERCENT", "100")
		payload := eventPayload(t, "evt_full_fee", "checkout.session.completed",
			checkoutObject("cs_full_fee", "pi_full_fee", 10000, courseMetadata(f, f.course)))

		require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)
		assert.EqualValues(t, 1, f.count(t, &model.Payment{}, ""))
		assert.EqualValues(t, 0, f.count(t, &model.Payout{}, ""))
	})
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	f := newFixture(t)
	payload := eventPayload(t, "evt_forged", "checkout.session.completed",
		checkoutObject("cs_forged", "pi_forged", 10000, courseMetadata(f, f.course)))

	tests := []struct {
		name   string
		header string
	}{
		{"wrong secret", signPayload(payload, "whsec_attacker")},
		{"missing header", ""},
		{"malformed header", "v1=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.service.HandleWebhook(t.Context(), payload, tt.header)
			assert.Equal(t, fiber.StatusBadRequest, res.Status)
			assert.Equal(t, "invalid signature", res.Body["error"])
		})
	}

	assert.EqualValues(t, 0, f.count(t, &model.Payment{}, ""))
	assert.EqualValues(t, 0, f.count(t, &model.Enrollment{}, ""))
	assert.EqualValues(t, 0, f.count(t, &model.ProcessedWebhookEvent{}, ""))
	assert.EqualValues(t, 0, f.count(t, &model.AuditLog{}, ""))
}

func TestWebhookWithoutSecretIsServerError(t *testing.T) {
	f := newFixture(t)
	payload := eventPayload(t, "evt_nosecret", "invoice.created", map[string]interface{}{"id": "in_1", "object": "invoice"})
	header := signPayload(payload, testWebhookSecret)

	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	res := f.service.HandleWebhook(t.Context(), payload, header)

	assert.Equal(t, fiber.StatusInternalServerError, res.Status)
	assert.False(t, f.processed(t, "evt_nosecret"))
}

func TestUnhandledEventIsMarkedProcessed(t *testing.T) {
	f := newFixture(t)
	payload := eventPayload(t, "evt_invoice", "invoice.created", map[string]interface{}{"id": "in_1", "object": "invoice"})

	res := f.deliver(t, payload)
	require.Equal(t, fiber.StatusOK, res.Status)

	assert.True(t, f.processed(t, "evt_invoice"))
	var marker model.AuditLog
	require.NoError(t, f.db.Where("action = ? AND target_id = ?", model.AuditActionWebhookProcessed, "evt_invoice").First(&marker).Error)
	assert.Equal(t, "system", marker.UserID)
	assert.Contains(t, string(marker.Metadata), `"handled":false`)

	assert.EqualValues(t, 0, f.count(t, &model.Payment{}, ""))
}

func TestCheckoutWithUnusableMetadataIsAcknowledged(t *testing.T) {
	tests := []struct {
		name     string
		metadata func(f *fixture) map[string]string
	}{
		{"no metadata", func(*fixture) map[string]string { return nil }},
		{"missing course", func(f *fixture) map[string]string { return map[string]string{"userId": f.student.ID} }},
		{"unknown type", func(f *fixture) map[string]string {
			return map[string]string{"userId": f.student.ID, "courseId": f.course.ID, "type": "bundle"}
		}},
		{"course that does not exist", func(f *fixture) map[string]string {
			return map[string]string{"userId": f.student.ID, "courseId": "missing-course"}
		}},
		{"user that does not exist", func(f *fixture) map[string]string {
			return map[string]string{"userId": "missing-user", "courseId": f.course.ID}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			payload := eventPayload(t, "evt_meta", "checkout.session.completed",
				checkoutObject("cs_meta", "pi_meta", 10000, tt.metadata(f)))

			res := f.deliver(t, payload)
			require.Equal(t, fiber.StatusOK, res.Status)

			assert.True(t, f.processed(t, "evt_meta"))
			assert.EqualValues(t, 0, f.count(t, &model.Payment{}, ""))
			assert.EqualValues(t, 0, f.count(t, &model.Enrollment{}, ""))
			assert.EqualValues(t, 0, f.count(t, &model.Payout{}, ""))
			assert.Empty(t, f.notifier.sent())
		})
	}
}

func TestHandlerFailureLeavesEventRetryable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Migrator().DropTable(&model.Payout{}))

	payload := eventPayload(t, "evt_retry", "checkout.session.completed",
		checkoutObject("cs_retry", "pi_retry", 10000, courseMetadata(f, f.course)))

	res := f.deliver(t, payload)
	require.Equal(t, fiber.StatusInternalServerError, res.Status)
	assert.Equal(t, "webhook processing failed", res.Body["error"])

	assert.False(t, f.processed(t, "evt_retry"))
	assert.EqualValues(t, 0, f.count(t, &model.Payment{}, ""))
	assert.EqualValues(t, 0, f.count(t, &model.Enrollment{}, ""))
	assert.Empty(t, f.notifier.sent())

	require.NoError(t, f.db.AutoMigrate(&model.Payout{}))

	res = f.deliver(t, payload)
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.True(t, f.processed(t, "evt_retry"))
	assert.EqualValues(t, 1, f.count(t, &model.Payout{}, ""))
}

func TestNotifierFailureDoesNotFailDelivery(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = assert.AnError

	payload := eventPayload(t, "evt_notify", "checkout.session.completed",
		checkoutObject("cs_notify", "pi_notify", 10000, courseMetadata(f, f.course)))

	require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)
	assert.True(t, f.processed(t, "evt_notify"))
}

func TestSubscriptionCheckoutActivatesPlan(t *testing.T) {
	f := newFixture(t)

	session := checkoutObject("cs_plan", "", 4990, map[string]string{
		"userId": f.teacher.ID,
		"type":   string(PurchaseTeacherSubscription),
	})
	session["mode"] = "subscription"
	session["subscription"] = "sub_teacher_1"
	delete(session, "payment_intent")

	require.Equal(t, fiber.StatusOK, f.deliver(t, eventPayload(t, "evt_plan", "checkout.session.completed", session)).Status)

	var sub model.TeacherSubscription
	require.NoError(t, f.db.Where("stripe_subscription_id = ?", "sub_teacher_1").First(&sub).Error)
	assert.Equal(t, f.teacher.ID, sub.UserID)
	assert.Equal(t, model.SubscriptionStatusActive, sub.Status)

	var financial model.TeacherFinancial
	require.NoError(t, f.db.Where("teacher_id = ?", f.teacher.ID).First(&financial).Error)
	assert.Equal(t, model.FinancialStatusActive, financial.SubscriptionStatus)

	payment, err := f.repos.Payments.FindByStripeID(t.Context(), "cs_plan")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentTypeSubscription, payment.Type)
	assert.InDelta(t, 49.90, payment.Amount, 0.001)

	assert.EqualValues(t, 1, f.count(t, &model.AuditLog{}, "action = ?", model.AuditActionSubscriptionActivated))
	assert.EqualValues(t, 0, f.count(t, &model.Payout{}, ""))
}

// seedPlans gives the student a plan and two active enrollments, and the
// teacher a plan, an active financial profile and one enrollment of their own
func seedPlans(t *testing.T, f *fixture) {
	t.Helper()
	ctx := t.Context()
	require.NoError(t, f.repos.Subscriptions.ActivateStudent(ctx, &model.StudentSubscription{
		UserID: f.student.ID, StripeSubscriptionID: "sub_student",
	}))
	require.NoError(t, f.repos.Subscriptions.ActivateTeacher(ctx, &model.TeacherSubscription{
		UserID: f.teacher.ID, StripeSubscriptionID: "sub_teacher",
	}))
	require.NoError(t, f.repos.Enrollments.Activate(ctx, f.student.ID, f.course.ID))
	require.NoError(t, f.repos.Enrollments.Activate(ctx, f.student.ID, f.freeCourse.ID))
	require.NoError(t, f.repos.Enrollments.Activate(ctx, f.teacher.ID, f.freeCourse.ID))
}

func TestStudentSubscriptionCancellation(t *testing.T) {
	f := newFixture(t)
	seedPlans(t, f)

	payload := eventPayload(t, "evt_cancel_student", "customer.subscription.deleted",
		subscriptionObject("sub_student", map[string]string{"userId": f.student.ID, "type": "student_subscription"}))
	require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)

	var sub model.StudentSubscription
	require.NoError(t, f.db.Where("stripe_subscription_id = ?", "sub_student").First(&sub).Error)
	assert.Equal(t, model.SubscriptionStatusCancelled, sub.Status)
	assert.NotNil(t, sub.CancelledAt)

	assert.EqualValues(t, 2, f.count(t, &model.Enrollment{}, "student_id = ? AND status = ?", f.student.ID, model.EnrollmentStatusCancelled))
	assert.EqualValues(t, 1, f.count(t, &model.Enrollment{}, "student_id = ? AND status = ?", f.teacher.ID, model.EnrollmentStatusActive))
	assert.EqualValues(t, 1, f.count(t, &model.TeacherFinancial{}, "subscription_status = ?", model.FinancialStatusActive))

	var audit model.AuditLog
	require.NoError(t, f.db.Where("action = ?", model.AuditActionSubscriptionCancelled).First(&audit).Error)
	assert.Equal(t, "sub_student", audit.TargetID)
	assert.Contains(t, string(audit.Metadata), `"cause":"stripe_subscription_deleted"`)
	assert.Contains(t, string(audit.Metadata), `"enrollmentsCancelled":2`)
}

func TestTeacherSubscriptionCancellation(t *testing.T) {
	f := newFixture(t)
	seedPlans(t, f)

	payload := eventPayload(t, "evt_cancel_teacher", "customer.subscription.deleted",
		subscriptionObject("sub_teacher", map[string]string{"userId": f.teacher.ID, "type": "teacher_subscription"}))
	require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)

	assert.EqualValues(t, 1, f.count(t, &model.TeacherSubscription{}, "status = ?", model.SubscriptionStatusCancelled))
	assert.EqualValues(t, 1, f.count(t, &model.TeacherFinancial{}, "teacher_id = ? AND subscription_status = ?", f.teacher.ID, model.FinancialStatusInactive))

	// enrollments are untouched, including the teacher's own
	assert.EqualValues(t, 3, f.count(t, &model.Enrollment{}, "status = ?", model.EnrollmentStatusActive))
	assert.EqualValues(t, 1, f.count(t, &model.StudentSubscription{}, "status = ?", model.SubscriptionStatusActive))
}

func TestSubscriptionCancellationWithoutKnownPlanIsAuditedOnly(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]string
		wantType string
	}{
		{"unknown plan", map[string]string{"type": "family_plan"}, `"type":"family_plan"`},
		{"missing plan", map[string]string{}, `"type":"unknown"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seedPlans(t, f)
			tt.metadata["userId"] = f.student.ID

			payload := eventPayload(t, "evt_cancel_unknown", "customer.subscription.deleted",
				subscriptionObject("sub_student", tt.metadata))
			require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)

			assert.True(t, f.processed(t, "evt_cancel_unknown"))

			var audit model.AuditLog
			require.NoError(t, f.db.Where("action = ?", model.AuditActionSubscriptionCancelled).First(&audit).Error)
			assert.Equal(t, f.student.ID, audit.UserID)
			assert.Equal(t, "sub_student", audit.TargetID)
			assert.Contains(t, string(audit.Metadata), tt.wantType)
			assert.EqualValues(t, 1, f.count(t, &model.AuditLog{}, "action = ?", model.AuditActionSubscriptionCancelled))

			// no plan or enrollment is touched
			assert.EqualValues(t, 3, f.count(t, &model.Enrollment{}, "status = ?", model.EnrollmentStatusActive))
			assert.EqualValues(t, 1, f.count(t, &model.StudentSubscription{}, "status = ?", model.SubscriptionStatusActive))
			assert.EqualValues(t, 1, f.count(t, &model.TeacherSubscription{}, "status = ?", model.SubscriptionStatusActive))
		})
	}
}

func TestSubscriptionCancellationWithoutUserIsNoop(t *testing.T) {
	f := newFixture(t)
	seedPlans(t, f)

	payload := eventPayload(t, "evt_cancel_anonymous", "customer.subscription.deleted",
		subscriptionObject("sub_student", map[string]string{"type": "student_subscription"}))
	require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)

	assert.True(t, f.processed(t, "evt_cancel_anonymous"))
	assert.EqualValues(t, 0, f.count(t, &model.AuditLog{}, "action = ?", model.AuditActionSubscriptionCancelled))
	assert.EqualValues(t, 1, f.count(t, &model.StudentSubscription{}, "status = ?", model.SubscriptionStatusActive))
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released []string
}

func (l *fakeLocker) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) Delete(_ context.Context, keys ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, key := range keys {
		delete(l.held, key)
		l.released = append(l.released, key)
	}
	return nil
}

func TestEventLock(t *testing.T) {
	t.Run("in flight delivery is refused", func(t *testing.T) {
		locker := &fakeLocker{held: map[string]bool{"webhook:lock:evt_locked": true}}
		f := newFixture(t, WithEventLocker(locker))

		payload := eventPayload(t, "evt_locked", "invoice.created", map[string]interface{}{"id": "in_1", "object": "invoice"})
		res := f.deliver(t, payload)

		assert.Equal(t, fiber.StatusInternalServerError, res.Status)
		assert.False(t, f.processed(t, "evt_locked"))
	})

	t.Run("lock is released after processing", func(t *testing.T) {
		locker := &fakeLocker{held: map[string]bool{}}
		f := newFixture(t, WithEventLocker(locker))

		payload := eventPayload(t, "evt_free", "invoice.created", map[string]interface{}{"id": "in_1", "object": "invoice"})
		require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)
		assert.Equal(t, []string{"webhook:lock:evt_free"}, locker.released)
		assert.Empty(t, locker.held)
	})

	t.Run("lock outage does not block processing", func(t *testing.T) {
		locker := &fakeLocker{held: map[string]bool{}, err: assert.AnError}
		f := newFixture(t, WithEventLocker(locker))

		payload := eventPayload(t, "evt_no_redis", "invoice.created", map[string]interface{}{"id": "in_1", "object": "invoice"})
		require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)
		assert.True(t, f.processed(t, "evt_no_redis"))
	})
}

type channelArchiver chan string

func (a channelArchiver) ArchiveWebhookEvent(_ context.Context, eventID, _ string, payload []byte) error {
	if len(payload) == 0 {
		return assert.AnError
	}
	a <- eventID
	return nil
}

func TestProcessedPayloadIsArchived(t *testing.T) {
	archived := make(channelArchiver, 1)
	f := newFixture(t, WithEventArchiver(archived))

	payload := eventPayload(t, "evt_archive", "invoice.created", map[string]interface{}{"id": "in_1", "object": "invoice"})
	require.Equal(t, fiber.StatusOK, f.deliver(t, payload).Status)

	select {
	case id := <-archived:
		assert.Equal(t, "evt_archive", id)
	case <-time.After(2 * time.Second):
		t.Fatal("payload was not archived")
	}
}

func TestLegacyAuditMarkerCountsAsProcessed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, LogAuditTrail(t.Context(), f.repos, AuditEntry{
		Action:   model.AuditActionWebhookProcessed,
		TargetID: "evt_legacy",
	}))

	payload := eventPayload(t, "evt_legacy", "checkout.session.completed",
		checkoutObject("cs_legacy", "pi_legacy", 10000, courseMetadata(f, f.course)))
	res := f.deliver(t, payload)

	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Equal(t, true, res.Body["duplicate"])
	assert.EqualValues(t, 0, f.count(t, &model.Payment{}, ""))
}

func TestMarkEventProcessedWritesOneMarker(t *testing.T) {
	f := newFixture(t)
	guard := NewIdempotencyGuard(f.repos)
	marker := ProcessedMarker{EventID: "evt_marked_twice", EventType: "invoice.created"}

	require.NoError(t, guard.MarkEventProcessed(t.Context(), marker))
	require.NoError(t, guard.MarkEventProcessed(t.Context(), marker))

	assert.EqualValues(t, 1, f.count(t, &model.ProcessedWebhookEvent{}, "event_id = ?", "evt_marked_twice"))
	assert.EqualValues(t, 1, f.count(t, &model.AuditLog{}, "action = ? AND target_id = ?", model.AuditActionWebhookProcessed, "evt_marked_twice"))
}
