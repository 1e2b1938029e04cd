package storage

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	puts   []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestWebhookEventKey(t *testing.T) {
	at := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "webhooks/stripe/2026/03/evt_123.json", WebhookEventKey("evt_123", at))
}

func TestArchiveWebhookEvent(t *testing.T) {
	client := &fakeS3{}
	archive := NewArchive(client, "payments-archive")
	archive.now = func() time.Time { return time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC) }

	payload := []byte(`{"id":"evt_1"}`)
	require.NoError(t, archive.ArchiveWebhookEvent(context.Background(), "evt_1", "checkout.session.completed", payload))

	require.Len(t, client.puts, 1)
	put := client.puts[0]
	assert.Equal(t, "payments-archive", aws.StringValue(put.Bucket))
	assert.Equal(t, "webhooks/stripe/2026/10/evt_1.json", aws.StringValue(put.Key))
	assert.Equal(t, s3.ObjectCannedACLPrivate, aws.StringValue(put.ACL))
	assert.Equal(t, "checkout.session.completed", aws.StringValue(put.Metadata["event-type"]))
	assert.Equal(t, payload, client.bodies[0])
}

func TestArchiveWebhookEventError(t *testing.T) {
	archive := NewArchive(&fakeS3{err: assert.AnError}, "bucket")
	err := archive.ArchiveWebhookEvent(context.Background(), "evt_1", "x", []byte("{}"))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestNewSpacesArchiveRequiresBucket(t *testing.T) {
	_, err := NewSpacesArchive(SpacesConfig{})
	assert.ErrorIs(t, err, ErrBucketNotConfigured)
}
