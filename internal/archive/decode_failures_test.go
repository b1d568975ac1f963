package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mybus/backend-go/internal/models"
	"github.com/mybus/backend-go/internal/transit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verify mockS3Client implements S3Client interface
var _ S3Client = (*mockS3Client)(nil)

// Verify the archive can be plugged into the pipeline
var _ transit.FailureRecorder = (*S3DecodeFailureArchive)(nil)

type mockS3Client struct {
	putObjectFunc func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putObjectFunc != nil {
		return m.putObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

// mockClock implements clock interface for testing
type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time {
	return m.now
}

func TestRecordDecodeFailure(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 10, 18, 9, 30, 15, 123000000, time.UTC)
	coords := models.Coordinates{Latitude: 20.2961, Longitude: 85.8245}
	raw := "<string>{broken</string>"

	var gotInput *s3.PutObjectInput
	var gotRecord FailureRecord
	client := &mockS3Client{
		putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			gotInput = params
			body, err := io.ReadAll(params.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &gotRecord))
			return &s3.PutObjectOutput{}, nil
		},
	}

	a := NewS3DecodeFailureArchive(client, "test-bucket")
	a.clock = &mockClock{now: fixed}

	err := a.RecordDecodeFailure(context.Background(), coords, raw)
	require.NoError(t, err)

	require.NotNil(t, gotInput)
	assert.Equal(t, "test-bucket", aws.ToString(gotInput.Bucket))
	assert.Equal(t, "decode-failures/2026/10/18/093015.123000000.json", aws.ToString(gotInput.Key))
	assert.Equal(t, "application/json", aws.ToString(gotInput.ContentType))
	assert.Equal(t, FailureRecord{Coordinates: coords, ReceivedAt: fixed.Unix(), Raw: raw}, gotRecord)
}

func TestRecordDecodeFailureErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		bucket string
		putErr error
	}{
		{name: "empty bucket name", bucket: ""},
		{name: "put fails", bucket: "test-bucket", putErr: errors.New("access denied")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &mockS3Client{
				putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
					return nil, tt.putErr
				},
			}

			err := NewS3DecodeFailureArchive(client, tt.bucket).RecordDecodeFailure(context.Background(), models.Coordinates{}, "x")
			require.Error(t, err)
			if tt.putErr != nil {
				assert.ErrorIs(t, err, tt.putErr)
			}
		})
	}
}
