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

package publish

import (
	"log/slog"
	"time"
)

type UploadOptionFunc func(*uploader)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) UploadOptionFunc {
	return func(u *uploader) {
		u.logger = logger
	}
}

// WithRegion specifies the AWS region
func WithRegion(region string) UploadOptionFunc {
	return func(u *uploader) {
		u.region = region
	}
}

// WithEndpoint specifies a custom endpoint for S3. This is generally used
// with S3-compatible stores such as minio (https://github.com/minio/minio)
func WithEndpoint(endpoint string) UploadOptionFunc {
	return func(u *uploader) {
		u.endpoint = endpoint
	}
}

// WithCredentialsFile specifies the GCS service account credentials file
func WithCredentialsFile(path string) UploadOptionFunc {
	return func(u *uploader) {
		u.credentialsFile = path
	}
}

// WithTimeout bounds the whole upload
func WithTimeout(timeout time.Duration) UploadOptionFunc {
	return func(u *uploader) {
		u.timeout = timeout
	}
}
