// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package s3

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/remote"
)

// 🔧 MockPutObjectAPI is a mock implementation of PutObjectAPI
type MockPutObjectAPI struct {
	mock.Mock
}

func (m *MockPutObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	result := m.Called(ctx, params)
	out, _ := result.Get(0).(*s3.PutObjectOutput)
	return out, result.Error(1)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestUpload(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		putErr      error
		wantTimeout bool
		wantErr     bool
		contentType string
	}{
		{
			name:        "pdf_uploaded",
			key:         "public/ACME/Q1/Internal/Onboarding/Client IDs/id1.pdf",
			contentType: "application/pdf",
		},
		{
			name: "unknown_extension_has_no_content_type",
			key:  "public/ACME/Q1/Internal/Onboarding/Client IDs/scan.zzz",
		},
		{
			name:        "deadline_is_timeout",
			key:         "k.pdf",
			putErr:      errors.Errorf("operation error S3: PutObject: %w", context.DeadlineExceeded),
			wantErr:     true,
			wantTimeout: true,
		},
		{
			name:        "net_timeout_is_timeout",
			key:         "k.pdf",
			putErr:      errors.Errorf("send request: %w", timeoutError{}),
			wantErr:     true,
			wantTimeout: true,
		},
		{
			name:        "request_timeout_code_is_timeout",
			key:         "k.pdf",
			putErr:      &smithy.GenericAPIError{Code: "RequestTimeout", Message: "slow"},
			wantErr:     true,
			wantTimeout: true,
		},
		{
			name:    "access_denied_is_failure",
			key:     "k.pdf",
			putErr:  &smithy.GenericAPIError{Code: "AccessDenied", Message: "no"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
			client := new(MockPutObjectAPI)

			client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
				body, err := io.ReadAll(in.Body)
				if err != nil || string(body) != "content" {
					return false
				}
				if aws.ToString(in.ContentType) != tt.contentType {
					return false
				}
				return aws.ToString(in.Bucket) == "onboarding" && aws.ToString(in.Key) == tt.key
			})).Return(&s3.PutObjectOutput{}, tt.putErr)

			gw := NewWithClient(client)
			err := gw.Upload(ctx, "onboarding", tt.key, []byte("content"))

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantTimeout, remote.IsTimeout(err), "timeout classification")
			} else {
				require.NoError(t, err)
			}
			client.AssertExpectations(t)
		})
	}
}

func TestUploadExpiredContextIsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	client := new(MockPutObjectAPI)
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("request canceled"))

	err := NewWithClient(client).Upload(ctx, "b", "k.pdf", nil)
	require.Error(t, err)
	assert.True(t, remote.IsTimeout(err))
}

func TestNewRequiresRegion(t *testing.T) {
	_, err := New(context.Background(), remote.Config{Bucket: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region is required")
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, remote.Names(), Name)
	assert.Equal(t, "s3", NewWithClient(new(MockPutObjectAPI)).Name())
}
