package repository

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/debemdeboas/draftdesk/internal/config"
	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/util/compression"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const s3ObjectSuffix = ".json"

// S3Store keeps one compressed JSON object per post under a key prefix.
type S3Store struct { // implements Store
	client *s3.Client
	bucket string
	prefix string

	compressor compression.Compressor
}

// NewS3Store builds an S3 client. Static credentials are used when both keys
// are set, otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg config.S3Config, accessKeyID, accessKeySecret string, compressor compression.Compressor) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if accessKeyID != "" && accessKeySecret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
		// S3-compatible services reject or mangle the default aws-chunked
		// checksum trailers.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}

	return &S3Store{
		client:     client,
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		compressor: compressor,
	}, nil
}

func (s *S3Store) key(id model.PostID) string {
	return s.prefix + string(id) + s3ObjectSuffix
}

func (s *S3Store) isPostKey(key string) bool {
	return strings.HasPrefix(key, s.prefix) && strings.HasSuffix(key, s3ObjectSuffix)
}

func (s *S3Store) All(ctx context.Context) ([]model.Post, error) {
	posts := make([]model.Post, 0)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "listing posts")
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !s.isPostKey(key) {
				continue
			}

			post, err := s.read(ctx, key)
			if err != nil {
				return nil, err
			}
			posts = append(posts, *post)
		}
	}

	return posts, nil
}

func (s *S3Store) read(ctx context.Context, key string) (*model.Post, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	defer out.Body.Close()

	compressed, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}

	return s.decode(compressed)
}

func (s *S3Store) decode(compressed []byte) (*model.Post, error) {
	data, err := s.compressor.Decompress(compressed)
	if err != nil {
		return nil, errors.Wrap(err, "decompressing post")
	}

	var post model.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, errors.Wrap(err, "decoding post")
	}
	clone := post.Clone()
	return &clone, nil
}

func (s *S3Store) encode(post *model.Post) ([]byte, error) {
	data, err := json.Marshal(post)
	if err != nil {
		return nil, errors.Wrap(err, "encoding post")
	}
	return s.compressor.Compress(data)
}

func (s *S3Store) Put(ctx context.Context, post *model.Post) error {
	body, err := s.encode(post)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(post.ID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/octet-stream"),
	})
	return errors.Wrapf(err, "writing post %s", post.ID)
}

func (s *S3Store) Remove(ctx context.Context, id model.PostID) error {
	key := s.key(id)

	// DeleteObject succeeds for missing keys, so check first.
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "checking %s", key)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return errors.Wrapf(err, "deleting %s", key)
}
