package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Options configures the S3 client. Endpoint is set for MinIO and other
// S3-compatible services; leave empty for AWS.
type S3Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Store keeps each gallery under <prefix>/<identity>/ in a bucket.
// Slot allocation is serialized per identity within this process only;
// separate processes writing the same identity may race.
type S3Store struct {
	client  S3API
	bucket  string
	prefix  string
	naming  Naming
	maxSize int
	locks   *identityLocks
}

// NewS3Client builds an S3 client from static credentials, falling back to
// the default AWS credential chain when no access key is configured.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Store creates a store over an existing client.
func NewS3Store(client S3API, bucket, prefix string, naming Naming, maxSize int) (*S3Store, error) {
	if client == nil {
		return nil, errors.New("s3 client is required")
	}
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if maxSize <= 0 {
		maxSize = constants.MaxImageSize
	}
	return &S3Store{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		naming:  naming,
		maxSize: maxSize,
		locks:   newIdentityLocks(),
	}, nil
}

// identityPrefix returns the key prefix of a gallery, always ending in "/".
func (s *S3Store) identityPrefix(identity string) string {
	if s.prefix == "" {
		return identity + "/"
	}
	return s.prefix + "/" + identity + "/"
}

// s3Image is a gallery image stored as an object.
type s3Image struct {
	client S3API
	bucket string
	key    string
}

func (o s3Image) Name() string { return path.Base(o.key) }

func (o s3Image) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", o.key, err)
	}
	return out.Body, nil
}

func (s *S3Store) Put(ctx context.Context, identity string, images []image.Image) ([]string, error) {
	if err := ValidateIdentity(identity); err != nil {
		return nil, err
	}
	encoded, err := encodeAll(images, s.maxSize)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(identity)
	defer unlock()

	existing, err := s.names(ctx, identity)
	if err != nil {
		return nil, err
	}

	slots := allocateSlots(existing, len(encoded), s.naming)
	for i, data := range encoded {
		key := s.identityPrefix(identity) + slots[i]
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String("image/jpeg"),
		})
		if err != nil {
			return slots[:i], fmt.Errorf("failed to store %s: %w", key, err)
		}
	}
	return slots, nil
}

// names lists image object names directly under the identity prefix.
func (s *S3Store) names(ctx context.Context, identity string) ([]string, error) {
	prefix := s.identityPrefix(identity)
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}

	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list gallery %s: %w", identity, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if strings.Contains(name, "/") || !IsImageName(name) {
				continue
			}
			names = append(names, name)
		}
	}
	sortNames(names)
	return names, nil
}

func (s *S3Store) List(ctx context.Context, identity string) ([]Image, error) {
	if err := ValidateIdentity(identity); err != nil {
		return nil, err
	}
	names, err := s.names(ctx, identity)
	if err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(names))
	for _, name := range names {
		images = append(images, s3Image{
			client: s.client,
			bucket: s.bucket,
			key:    s.identityPrefix(identity) + name,
		})
	}
	return images, nil
}

// Exists reports whether at least one object lives under the identity prefix.
func (s *S3Store) Exists(ctx context.Context, identity string) (bool, error) {
	if err := ValidateIdentity(identity); err != nil {
		return false, err
	}
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.identityPrefix(identity)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("failed to check gallery %s: %w", identity, err)
	}
	return len(out.Contents) > 0, nil
}

func (s *S3Store) Count(ctx context.Context, identity string) (int, error) {
	if err := ValidateIdentity(identity); err != nil {
		return 0, err
	}
	names, err := s.names(ctx, identity)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}
