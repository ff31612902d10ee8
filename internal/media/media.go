// Package media stores invitation uploads in an S3-compatible bucket under
// "<env>/<invitationID>/".
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kirinyoku/wedgo/internal/domain"
)

type Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	PublicURL string
	PathStyle bool
}

// Object is one stored file.
type Object struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Asset is the reference an invitation slice keeps to o.
func (o Object) Asset() domain.Asset {
	return domain.Asset{
		FileID:       o.Key,
		Name:         o.Name,
		URL:          o.URL,
		ThumbnailURL: o.ThumbnailURL,
	}
}

// Path is the prefix holding every file of one invitation.
func Path(env, invitationID string) string {
	return env + "/" + invitationID + "/"
}

type S3 struct {
	client *s3.Client
	bucket string
	urls   URLs
}

func NewS3(ctx context.Context, cfg Config) (*S3, error) {
	const op = "media.NewS3"

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%s: missing bucket", op)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: load aws config: %w", op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &S3{
		client: client,
		bucket: cfg.Bucket,
		urls:   URLs{Base: publicURL, Thumbnail: DefaultThumbnail},
	}, nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]Object, error) {
	const op = "media.S3.List"

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	out := make([]Object, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			o := s.object(key)
			o.Size = aws.ToInt64(obj.Size)
			o.LastModified = aws.ToTime(obj.LastModified)
			out = append(out, o)
		}
	}

	return out, nil
}

func (s *S3) Put(
	ctx context.Context,
	key string,
	body io.Reader,
	size int64,
	contentType string,
) (Object, error) {
	const op = "media.S3.Put"

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return Object{}, fmt.Errorf("%s: %w", op, err)
	}

	o := s.object(key)
	o.Size = size
	o.LastModified = time.Now()
	return o, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	const op = "media.S3.Delete"

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeletePrefix removes every object under prefix and returns how many were
// deleted.
func (s *S3) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	const op = "media.S3.DeletePrefix"

	if prefix == "" || prefix == "/" {
		return 0, fmt.Errorf("%s: refusing to delete the whole bucket", op)
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	deleted := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("%s: list: %w", op, err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		ids := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}

		res, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("%s: %w", op, err)
		}
		if len(res.Errors) > 0 {
			e := res.Errors[0]
			return deleted, fmt.Errorf("%s: %s: %s", op, aws.ToString(e.Key), aws.ToString(e.Message))
		}
		deleted += len(ids)
	}

	return deleted, nil
}

func (s *S3) URLs() URLs {
	return s.urls
}

func (s *S3) object(key string) Object {
	return Object{
		Key:          key,
		Name:         path.Base(key),
		URL:          s.urls.URL(key),
		ThumbnailURL: s.urls.ThumbnailURL(key),
	}
}
