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

// Package s3 uploads onboarding documents to an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"mime"
	"net"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/uploadrc/pkg/remote"
)

// Name is the registry name of this gateway
const Name = "s3"

func init() {
	remote.Register(Name, func(ctx context.Context, cfg remote.Config) (remote.Gateway, error) {
		return New(ctx, cfg)
	})
}

// PutObjectAPI is the slice of the S3 client the gateway uses
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ remote.Gateway = (*Gateway)(nil)

// ☁️ Gateway implements remote.Gateway with PutObject
type Gateway struct {
	client PutObjectAPI
}

// 🏭 New builds an S3 client for cfg.Region. Static credentials are used when
// present; otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg remote.Config) (*Gateway, error) {
	if cfg.Region == "" {
		return nil, errors.New("region is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("loading aws config: %w", err)
	}

	return NewWithClient(s3.NewFromConfig(awsCfg)), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client PutObjectAPI) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) Name() string {
	return Name
}

// 📤 Upload puts content under key. Timeouts are reported as remote.ErrTimeout.
func (g *Gateway) Upload(ctx context.Context, bucket, key string, content []byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := g.client.PutObject(ctx, input); err != nil {
		if isTimeout(ctx, err) {
			return errors.Errorf("putting %s: %w", key, remote.ErrTimeout)
		}
		return errors.Errorf("putting %s: %w", key, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("bucket", bucket).
		Str("key", key).
		Int("bytes", len(content)).
		Msg("object uploaded")

	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "RequestTimeout" {
		return true
	}

	return false
}
