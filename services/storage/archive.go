// Package storage keeps raw webhook payloads in S3-compatible object storage
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

var ErrBucketNotConfigured = errors.New("SPACES_BUCKET is not configured")

// SpacesConfig holds configuration for the Spaces client
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
}

// Archive writes private objects to a DigitalOcean Spaces (or any S3) bucket
type Archive struct {
	s3Client s3iface.S3API
	bucket   string
	now      func() time.Time
}

// NewSpacesArchive creates a Spaces-backed archive
func NewSpacesArchive(config SpacesConfig) (*Archive, error) {
	if config.Bucket == "" {
		return nil, ErrBucketNotConfigured
	}

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spaces session: %w", err)
	}

	return NewArchive(s3.New(sess), config.Bucket), nil
}

// NewArchive wraps an existing S3 client
func NewArchive(client s3iface.S3API, bucket string) *Archive {
	return &Archive{
		s3Client: client,
		bucket:   bucket,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WebhookEventKey is webhooks/stripe/YYYY/MM/<event id>.json
func WebhookEventKey(eventID string, at time.Time) string {
	return path.Join("webhooks", "stripe", at.Format("2006"), at.Format("01"), eventID+".json")
}

// ArchiveWebhookEvent stores a verified raw payload. Re-archiving the same
// event overwrites the object with identical content.
func (a *Archive) ArchiveWebhookEvent(ctx context.Context, eventID, eventType string, payload []byte) error {
	key := WebhookEventKey(eventID, a.now())

	_, err := a.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ACL:         aws.String(s3.ObjectCannedACLPrivate),
		ContentType: aws.String("application/json"),
		Metadata: map[string]*string{
			"event-type": aws.String(eventType),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to archive webhook event %s: %w", eventID, err)
	}
	return nil
}
