// Copyright 2025 Blink Labs Software
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

// Package publish uploads a finished output file to object storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"
)

const (
	SchemeGCS = "gcs"
	SchemeS3  = "s3"

	DefaultTimeout = 10 * time.Minute
)

var ErrUnsupportedScheme = errors.New("publish: unsupported URL scheme")

// Target is a parsed object storage location
type Target struct {
	Scheme string
	Bucket string
	Key    string
}

func (t Target) String() string {
	return t.Scheme + "://" + t.Bucket + "/" + t.Key
}

// ParseURL parses gcs://bucket/key or s3://bucket/key. When the key is
// empty or ends in a slash the base name of src is appended.
func ParseURL(rawURL string, src string) (*Target, error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}
	switch scheme {
	case SchemeGCS, SchemeS3:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return nil, fmt.Errorf("publish: bucket not set in %q", rawURL)
	}
	if key == "" || strings.HasSuffix(key, "/") {
		key = path.Join(key, filepath.Base(src))
	}
	return &Target{
		Scheme: scheme,
		Bucket: bucket,
		Key:    key,
	}, nil
}

type uploader struct {
	logger          *slog.Logger
	region          string
	endpoint        string
	credentialsFile string
	timeout         time.Duration
}

// Upload copies the file at src to rawURL. An empty URL is a no-op.
func Upload(
	ctx context.Context,
	src string,
	rawURL string,
	opts ...UploadOptionFunc,
) error {
	if rawURL == "" {
		return nil
	}
	target, err := ParseURL(rawURL, src)
	if err != nil {
		return err
	}
	u := &uploader{
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		u.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("publish: open %s: %w", src, err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("publish: stat %s: %w", src, err)
	}
	switch target.Scheme {
	case SchemeGCS:
		err = u.uploadGCS(ctx, f, target)
	case SchemeS3:
		err = u.uploadS3(ctx, f, stat.Size(), target)
	}
	if err != nil {
		return err
	}
	u.logger.Info(
		fmt.Sprintf("published %s (%d bytes) to %s", src, stat.Size(), target),
		"component", "publish",
	)
	return nil
}

func (u *uploader) uploadGCS(ctx context.Context, r io.Reader, target *Target) error {
	clientOpts := []option.ClientOption{storage.WithDisabledClientMetrics()}
	if u.credentialsFile != "" {
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(u.credentialsFile),
		)
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf("gcs publish: failed in creating storage client: %w", err)
	}
	defer client.Close()
	w := client.Bucket(target.Bucket).Object(target.Key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs publish: write %s: %w", target, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs publish: close writer: %w", err)
	}
	return nil
}

func (u *uploader) uploadS3(
	ctx context.Context,
	body io.Reader,
	size int64,
	target *Target,
) error {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("s3 publish: load default AWS config: %w", err)
	}
	// Override region if specified
	if u.region != "" {
		awsCfg.Region = u.region
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if u.endpoint != "" {
			o.BaseEndpoint = aws.String(u.endpoint)
			o.UsePathStyle = true
			// Only send checksums the operation requires
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(target.Bucket),
		Key:           aws.String(target.Key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("s3 publish: put %s: %w", target, err)
	}
	return nil
}
