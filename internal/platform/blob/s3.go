package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional, e.g. MinIO
	PathStyle bool
}

// S3 stores blobs in a single S3-compatible bucket.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	baseURL *url.URL
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	var base *url.URL
	if cfg.Endpoint != "" {
		if u, err := url.Parse(cfg.Endpoint); err == nil {
			base = u
		}
	}
	return &S3{client: client, presign: s3.NewPresignClient(client), bucket: cfg.Bucket, baseURL: base}, nil
}

func (s *S3) Driver() Driver { return DriverS3 }

func (s *S3) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	// create-only, emulated with a Head first
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err == nil {
		return Info{}, fmt.Errorf("%w: %s", ErrExists, key)
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = cloneMetadata(opts.Metadata)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Info{}, err
	}
	return s.Head(ctx, key)
}

func (s *S3) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return Info{}, nil, s.mapErr(key, err)
	}
	return s.info(key, aws.ToInt64(out.ContentLength), out.ContentType, out.ETag, out.Metadata, out.LastModified), out.Body, nil
}

func (s *S3) Head(ctx context.Context, key string) (Info, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return Info{}, s.mapErr(key, err)
	}
	return s.info(key, aws.ToInt64(out.ContentLength), out.ContentType, out.ETag, out.Metadata, out.LastModified), nil
}

func (s *S3) Delete(ctx context.Context, key string) (bool, error) {
	if _, err := s.Head(ctx, key); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]Info, error) {
	var out []Info
	var token *string
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &prefix, ContinuationToken: token})
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			out = append(out, Info{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ETag:         strings.Trim(aws.ToString(obj.ETag), "\""),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
		if !aws.ToBool(page.IsTruncated) || page.NextContinuationToken == nil {
			break
		}
		token = page.NextContinuationToken
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *S3) PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error) {
	if !presignMethodOK(opts.Method) {
		return "", ErrUnsupported
	}
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key}, func(po *s3.PresignOptions) {
		po.Expires = expiry
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *S3) info(key string, size int64, contentType, etag *string, md map[string]string, lastModified *time.Time) Info {
	lm := time.Now().UTC()
	if lastModified != nil {
		lm = *lastModified
	}
	info := Info{
		Key:          key,
		Size:         size,
		ContentType:  aws.ToString(contentType),
		ETag:         strings.Trim(aws.ToString(etag), "\""),
		Metadata:     md,
		LastModified: lm,
	}
	if s.baseURL != nil {
		info.URL = s.baseURL.JoinPath(s.bucket, key).String()
	}
	return info
}

func (s *S3) mapErr(key string, err error) error {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}
