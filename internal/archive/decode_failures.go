package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mybus/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "decode-failures/"

// S3Client defines the interface for S3 operations we need
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// FailureRecord is the stored form of one undecodable response.
type FailureRecord struct {
	Coordinates models.Coordinates `json:"coordinates"`
	ReceivedAt  int64              `json:"receivedAt"`
	Raw         string             `json:"raw"`
}

// S3DecodeFailureArchive writes undecodable transit responses to S3 so the
// envelope can be inspected later.
type S3DecodeFailureArchive struct {
	client     S3Client
	bucketName string
	clock      clock
}

func NewS3DecodeFailureArchive(client S3Client, bucketName string) *S3DecodeFailureArchive {
	return &S3DecodeFailureArchive{
		client:     client,
		bucketName: bucketName,
		clock:      realClock{},
	}
}

func (a *S3DecodeFailureArchive) RecordDecodeFailure(ctx context.Context, coords models.Coordinates, raw string) error {
	if a.bucketName == "" {
		return fmt.Errorf("empty bucket name")
	}

	now := a.clock.Now().UTC()
	record := FailureRecord{
		Coordinates: coords,
		ReceivedAt:  now.Unix(),
		Raw:         raw,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(record); err != nil {
		return fmt.Errorf("encoding failure record: %w", err)
	}

	key := objectKey(now)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("saving to S3: %w", err)
	}

	log.Debug().Str("key", key).Int("bytes", len(raw)).Msg("Archived undecodable response")
	return nil
}

func objectKey(t time.Time) string {
	return keyPrefix + t.Format("2006/01/02/150405.000000000") + ".json"
}
