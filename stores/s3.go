//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoState.
//
// GoState is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoState is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoState. If not, see https://www.gnu.org/licenses/.

package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/aaronlmathis/gostate"
)

// Package stores provides implementations of gostate.ListStore backed by various
// storage systems.
//
// This file implements an S3-backed keyed list store. Each key maps to one object
// holding the length-prefixed encoded elements in order. S3 has no append
// primitive, so every mutation is a read-modify-write of the whole object; the
// store suits spill and archival state, not hot per-record appends.

// S3StoreError provides structured error information for S3 store operations.
type S3StoreError struct {
	Op  string // Operation that failed (e.g., "get_object", "put_object", "decode")
	Key string // State key being accessed, if applicable
	Err error  // Underlying error
}

func (e *S3StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("s3 store %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3 store %s: %v", e.Op, e.Err)
}

func (e *S3StoreError) Unwrap() error {
	return e.Err
}

// S3StoreStats holds statistics about the S3 store's activity.
type S3StoreStats struct {
	Reads      int64     // Object reads completed
	Writes     int64     // Object writes completed
	Deletes    int64     // Object deletes completed
	BytesRead  int64     // Total bytes fetched
	ErrorCount int64     // Operations that returned an error
	LastOpTime time.Time // Time of the most recent operation
}

// S3ListStoreOptions configures the S3 list store.
type S3ListStoreOptions struct {
	Bucket         string          // S3 bucket name
	Prefix         string          // Object key prefix for state objects
	Region         string          // AWS region
	Profile        string          // AWS profile to use
	Credentials    aws.Credentials // Explicit credentials
	EndpointURL    string          // Custom S3 endpoint (for S3-compatible services)
	ForcePathStyle bool            // Use path-style addressing
	Logger         *zap.Logger     // Optional logger; defaults to a no-op logger
}

// S3ListStoreOption represents a configuration function for S3ListStoreOptions.
type S3ListStoreOption func(*S3ListStoreOptions)

// WithS3Bucket sets the S3 bucket holding state objects.
func WithS3Bucket(bucket string) S3ListStoreOption {
	return func(opts *S3ListStoreOptions) {
		opts.Bucket = bucket
	}
}

// WithS3Prefix sets the object key prefix for state objects.
func WithS3Prefix(prefix string) S3ListStoreOption {
	return func(opts *S3ListStoreOptions) {
		opts.Prefix = prefix
	}
}

// WithS3Region sets the AWS region.
func WithS3Region(region string) S3ListStoreOption {
	return func(opts *S3ListStoreOptions) {
		opts.Region = region
	}
}

// WithS3Profile sets the AWS profile to load configuration from.
func WithS3Profile(profile string) S3ListStoreOption {
	return func(opts *S3ListStoreOptions) {
		opts.Profile = profile
	}
}

// WithS3Credentials supplies explicit static credentials.
func WithS3Credentials(creds aws.Credentials) S3ListStoreOption {
	return func(opts *S3ListStoreOptions) {
		opts.Credentials = creds
	}
}

// WithS3Endpoint sets a custom endpoint for S3-compatible services.
func WithS3Endpoint(endpoint string) S3ListStoreOption {
	return func(opts *S3ListStoreOptions) {
		opts.EndpointURL = endpoint
	}
}

// WithS3PathStyle enables path-style addressing.
func WithS3PathStyle(pathStyle bool) S3ListStoreOption {
	return func(opts *S3ListStoreOptions) {
		opts.ForcePathStyle = pathStyle
	}
}

// WithS3Logger sets the logger used for connection-level events.
func WithS3Logger(logger *zap.Logger) S3ListStoreOption {
	return func(opts *S3ListStoreOptions) {
		opts.Logger = logger
	}
}

// S3ListStore implements gostate.ListStore on S3 objects. Elements are stored in
// their encoded form; RemoveFirst matches on encoded bytes, so the codec must be
// deterministic.
type S3ListStore[T comparable] struct {
	client *s3.Client
	bucket string
	prefix string
	codec  gostate.Codec[T]
	logger *zap.Logger
	mu     sync.Mutex
	stats  S3StoreStats
}

// NewS3ListStore creates an S3-backed keyed list store.
func NewS3ListStore[T comparable](codec gostate.Codec[T], options ...S3ListStoreOption) (*S3ListStore[T], error) {
	opts := &S3ListStoreOptions{}

	for _, option := range options {
		option(opts)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if codec == nil {
		return nil, &S3StoreError{Op: "validate", Err: fmt.Errorf("codec is required")}
	}
	if opts.Bucket == "" {
		return nil, &S3StoreError{Op: "validate", Err: fmt.Errorf("bucket is required")}
	}

	cfg, err := createAWSConfig(*opts)
	if err != nil {
		return nil, &S3StoreError{Op: "create_aws_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	opts.Logger.Info("s3 list store ready",
		zap.String("bucket", opts.Bucket),
		zap.String("prefix", opts.Prefix),
	)

	return &S3ListStore[T]{
		client: client,
		bucket: opts.Bucket,
		prefix: opts.Prefix,
		codec:  codec,
		logger: opts.Logger,
	}, nil
}

// createAWSConfig creates AWS configuration from options.
func createAWSConfig(opts S3ListStoreOptions) (aws.Config, error) {
	configOpts := []func(*config.LoadOptions) error{}

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	if opts.Credentials.AccessKeyID != "" {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(
			opts.Credentials.AccessKeyID,
			opts.Credentials.SecretAccessKey,
			opts.Credentials.SessionToken,
		)
	}

	return cfg, nil
}

// Stats returns a snapshot of the store's activity counters.
func (s *S3ListStore[T]) Stats() S3StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Snapshot implements gostate.ListStore.
func (s *S3ListStore[T]) Snapshot(ctx context.Context, key string) ([]T, error) {
	frames, err := s.readFrames(ctx, key)
	if err != nil {
		return nil, s.fail("snapshot", key, err)
	}
	contents := make([]T, 0, len(frames))
	for _, data := range frames {
		value, err := s.codec.Decode(data)
		if err != nil {
			return nil, s.fail("snapshot", key, err)
		}
		contents = append(contents, value)
	}
	return contents, nil
}

// Append implements gostate.ListStore.
func (s *S3ListStore[T]) Append(ctx context.Context, key string, value T) error {
	return s.AppendAll(ctx, key, []T{value})
}

// AppendAll implements gostate.ListStore.
func (s *S3ListStore[T]) AppendAll(ctx context.Context, key string, values []T) error {
	if len(values) == 0 {
		return nil
	}
	frames, err := s.readFrames(ctx, key)
	if err != nil {
		return s.fail("append_all", key, err)
	}
	for _, value := range values {
		data, err := s.codec.Encode(value)
		if err != nil {
			return s.fail("append_all", key, err)
		}
		frames = append(frames, data)
	}
	if err := s.writeFrames(ctx, key, frames); err != nil {
		return s.fail("append_all", key, err)
	}
	return nil
}

// RemoveFirst implements gostate.ListStore.
func (s *S3ListStore[T]) RemoveFirst(ctx context.Context, key string, value T) (bool, error) {
	target, err := s.codec.Encode(value)
	if err != nil {
		return false, s.fail("remove", key, err)
	}
	frames, err := s.readFrames(ctx, key)
	if err != nil {
		return false, s.fail("remove", key, err)
	}
	for i, data := range frames {
		if bytes.Equal(data, target) {
			frames = append(frames[:i], frames[i+1:]...)
			if err := s.writeFrames(ctx, key, frames); err != nil {
				return false, s.fail("remove", key, err)
			}
			return true, nil
		}
	}
	return false, nil
}

// ReplaceAll implements gostate.ListStore.
func (s *S3ListStore[T]) ReplaceAll(ctx context.Context, key string, values []T) error {
	frames := make([][]byte, 0, len(values))
	for _, value := range values {
		data, err := s.codec.Encode(value)
		if err != nil {
			return s.fail("replace_all", key, err)
		}
		frames = append(frames, data)
	}
	if err := s.writeFrames(ctx, key, frames); err != nil {
		return s.fail("replace_all", key, err)
	}
	return nil
}

// Clear implements gostate.ListStore.
func (s *S3ListStore[T]) Clear(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return s.fail("clear", key, err)
	}
	s.record(func(st *S3StoreStats) { st.Deletes++ })
	return nil
}

func (s *S3ListStore[T]) objectKey(key string) string {
	return s.prefix + key
}

// readFrames fetches and deframes the object for key. A missing object is an
// empty list, not an error.
func (s *S3ListStore[T]) readFrames(ctx context.Context, key string) ([][]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	s.record(func(st *S3StoreStats) {
		st.Reads++
		st.BytesRead += int64(len(body))
	})
	return decodeFrames(body)
}

// writeFrames frames and uploads the whole list for key.
func (s *S3ListStore[T]) writeFrames(ctx context.Context, key string, frames [][]byte) error {
	body := encodeFrames(frames)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return err
	}
	s.record(func(st *S3StoreStats) { st.Writes++ })
	return nil
}

// encodeFrames length-prefixes each element so arbitrary codec output can be
// stored back to back.
func encodeFrames(frames [][]byte) []byte {
	var buf bytes.Buffer
	var header [binary.MaxVarintLen64]byte
	for _, frame := range frames {
		n := binary.PutUvarint(header[:], uint64(len(frame)))
		buf.Write(header[:n])
		buf.Write(frame)
	}
	return buf.Bytes()
}

func decodeFrames(body []byte) ([][]byte, error) {
	var frames [][]byte
	for len(body) > 0 {
		length, n := binary.Uvarint(body)
		if n <= 0 {
			return nil, fmt.Errorf("corrupt frame header")
		}
		body = body[n:]
		if uint64(len(body)) < length {
			return nil, fmt.Errorf("truncated frame: want %d bytes, have %d", length, len(body))
		}
		frames = append(frames, body[:length])
		body = body[length:]
	}
	return frames, nil
}

func (s *S3ListStore[T]) record(update func(*S3StoreStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.stats)
	s.stats.LastOpTime = time.Now()
}

func (s *S3ListStore[T]) fail(op, key string, err error) error {
	s.record(func(st *S3StoreStats) { st.ErrorCount++ })
	return &S3StoreError{Op: op, Key: key, Err: err}
}

var _ gostate.ListStore[string] = (*S3ListStore[string])(nil)
