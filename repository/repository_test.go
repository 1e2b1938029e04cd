package repository

import (
	"context"
	"testing"
	"time"

	"github.com/VisionVII/smeducacional-sub001/database/dbtest"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestEnrollmentActivateReactivatesCancelledRow(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.Open(t))

	require.NoError(t, repos.Enrollments.Activate(ctx, "student-1", "course-1"))
	cancelled, err := repos.Enrollments.CancelActiveForStudent(ctx, "student-1", time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 1, cancelled)

	require.NoError(t, repos.Enrollments.Activate(ctx, "student-1", "course-1"))

	enrollment, err := repos.Enrollments.Find(ctx, "student-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusActive, enrollment.Status)
	assert.Nil(t, enrollment.CancelledAt)

	var count int64
	require.NoError(t, repos.DB().Model(&model.Enrollment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPaymentUpsertKeepsOneRowPerPaymentIntent(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.Open(t))

	first, err := repos.Payments.Upsert(ctx, &model.Payment{
		UserID:          "student-1",
		StripePaymentID: "pi_123",
		Amount:          100,
		Currency:        "BRL",
		Status:          model.PaymentStatusCompleted,
		Type:            model.PaymentTypeCourse,
		Metadata:        datatypes.JSON(`{"eventId":"evt_1"}`),
	})
	require.NoError(t, err)

	second, err := repos.Payments.Upsert(ctx, &model.Payment{
		UserID:          "student-1",
		StripePaymentID: "pi_123",
		Amount:          120,
		Currency:        "BRL",
		Status:          model.PaymentStatusCompleted,
		Type:            model.PaymentTypeCourse,
		Metadata:        datatypes.JSON(`{"eventId":"evt_2"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.InDelta(t, 120, second.Amount, 0.001)

	var count int64
	require.NoError(t, repos.DB().Model(&model.Payment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPayoutCreateOnce(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.Open(t))
	now := time.Now().UTC()

	newPayout := func() *model.Payout {
		return &model.Payout{
			TeacherID:   "teacher-1",
			PaymentID:   "payment-1",
			Amount:      70,
			Currency:    "BRL",
			PeriodStart: now,
			PeriodEnd:   now,
			Status:      model.PayoutStatusPending,
		}
	}

	created, err := repos.Payouts.CreateOnce(ctx, newPayout())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repos.Payouts.CreateOnce(ctx, newPayout())
	require.NoError(t, err)
	assert.False(t, created)

	payouts, err := repos.Payouts.ListByTeacher(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Len(t, payouts, 1)
}

func TestWebhookEventRecordIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.Open(t))

	event := func() *model.ProcessedWebhookEvent {
		return &model.ProcessedWebhookEvent{
			EventID:     "evt_1",
			Provider:    "stripe",
			EventType:   "checkout.session.completed",
			ProcessedAt: time.Now().UTC(),
		}
	}

	inserted, err := repos.WebhookEvents.Record(ctx, event())
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repos.WebhookEvents.Record(ctx, event())
	require.NoError(t, err)
	assert.False(t, inserted)

	exists, err := repos.WebhookEvents.Exists(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, exists)

	pruned, err := repos.WebhookEvents.DeleteOlderThan(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.Open(t))

	err := repos.Transaction(ctx, func(tx *Repositories) error {
		if err := tx.Enrollments.Activate(ctx, "student-1", "course-1"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = repos.Enrollments.Find(ctx, "student-1", "course-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTeacherActivationAndCancellation(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.Open(t))

	require.NoError(t, repos.Subscriptions.ActivateTeacher(ctx, &model.TeacherSubscription{
		UserID:               "teacher-1",
		StripeSubscriptionID: "sub_1",
		StripeCustomerID:     "cus_1",
	}))

	owns, err := repos.Subscriptions.Owns(ctx, "teacher-1", "sub_1")
	require.NoError(t, err)
	assert.True(t, owns)

	cancelled, err := repos.Subscriptions.CancelTeacher(ctx, "teacher-1", time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 1, cancelled)

	updated, err := repos.Subscriptions.SetTeacherFinancialStatus(ctx, "teacher-1", model.FinancialStatusInactive)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	var financial model.TeacherFinancial
	require.NoError(t, repos.DB().Where("teacher_id = ?", "teacher-1").First(&financial).Error)
	assert.Equal(t, model.FinancialStatusInactive, financial.SubscriptionStatus)
}
