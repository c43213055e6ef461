/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 object metadata keys.
const (
	metaFilename   = "filename"
	metaUploadedAt = "uploaded-at"
)

// S3API is the part of the S3 client the backend uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3 stores blobs as objects under prefix in bucket.
type S3 struct {
	client S3API
	bucket string
	prefix string
}

// NewS3 builds a client from the default AWS config chain (env, shared config, IMDS).
func NewS3(ctx context.Context, bucket, prefix string) (*S3, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3WithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func NewS3WithClient(client S3API, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) key(id string) string { return s.prefix + id }

func (s *S3) Put(ctx context.Context, meta Meta, data []byte) error {
	if !ValidID(meta.ID) {
		return ErrInvalidID
	}
	if meta.UploadedAt.IsZero() {
		meta.UploadedAt = time.Now()
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(meta.ID)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(meta.ContentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			metaFilename:   meta.Filename,
			metaUploadedAt: meta.UploadedAt.UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (s *S3) Get(ctx context.Context, id string) ([]byte, Meta, error) {
	m := Meta{ID: id}
	if !ValidID(id) {
		return nil, m, ErrInvalidID
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return nil, m, s.mapErr(err)
	}
	defer func() { _ = out.Body.Close() }()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, m, fmt.Errorf("failed to read S3 object: %w", err)
	}
	m.ContentType = aws.ToString(out.ContentType)
	m.Size = int64(len(data))
	fillMeta(&m, out.Metadata, out.LastModified)
	return data, m, nil
}

func (s *S3) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	// DeleteObject succeeds for missing keys.
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	}); err != nil {
		return s.mapErr(err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	}); err != nil {
		return fmt.Errorf("delete object failed: %w", err)
	}
	return nil
}

// List reports every object under the prefix. Upload times come from LastModified since
// listing does not return user metadata.
func (s *S3) List(ctx context.Context) ([]Meta, error) {
	var out []Meta
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects failed: %w", err)
		}
		for _, obj := range page.Contents {
			id := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if !ValidID(id) {
				continue
			}
			m := Meta{ID: id, Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				m.UploadedAt = *obj.LastModified
			}
			out = append(out, m)
		}
	}
	return out, nil
}

func fillMeta(m *Meta, md map[string]string, lastModified *time.Time) {
	for k, v := range md {
		switch strings.ToLower(k) {
		case metaFilename:
			m.Filename = v
		case metaUploadedAt:
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				m.UploadedAt = t
			}
		}
	}
	if m.UploadedAt.IsZero() && lastModified != nil {
		m.UploadedAt = *lastModified
	}
}

func (s *S3) mapErr(err error) error {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return ErrNotFound
	}
	return err
}
