// Package s3storage implements the object store on AWS S3 or any S3-compatible service
package s3storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// DeleteObjects принимает не больше 1000 ключей за вызов
const deleteBatch = 1000

type S3PhotoStorage struct {
	client *s3.Client
	bucket string
}

// New - aws.Config собирается снаружи и делится с детектором меток
func New(awsCfg aws.Config, bucket, endpoint string, pathStyle bool) (*S3PhotoStorage, error) {
	if bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	var optFns []func(*s3.Options)
	if endpoint != "" {
		optFns = append(optFns, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if pathStyle {
		optFns = append(optFns, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3PhotoStorage{client: s3.NewFromConfig(awsCfg, optFns...), bucket: bucket}, nil
}

// EnsureBucket создаёт бакет, если его ещё нет
func (s *S3PhotoStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchBucket") {
		if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
			return fmt.Errorf("create bucket %q: %w", s.bucket, err)
		}
		return nil
	}

	return fmt.Errorf("head bucket %q: %w", s.bucket, err)
}

func (s *S3PhotoStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

func (s *S3PhotoStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, "", fmt.Errorf("%w: %s", model.ErrObjectNotFound, key)
		}
		return nil, "", fmt.Errorf("get object %q: %w", key, err)
	}

	return out.Body, aws.ToString(out.ContentType), nil
}

func (s *S3PhotoStorage) DeleteMany(ctx context.Context, keys []string) error {
	var errs []error

	for start := 0; start < len(keys); start += deleteBatch {
		end := min(start+deleteBatch, len(keys))

		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("delete objects batch at %d: %w", start, err))
			continue
		}
		for _, e := range out.Errors {
			errs = append(errs, fmt.Errorf("remove %q: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
	}

	return errors.Join(errs...)
}

func (s *S3PhotoStorage) Count(ctx context.Context) (int, error) {
	n := 0
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("list objects: %w", err)
		}
		n += len(page.Contents)
	}
	return n, nil
}
