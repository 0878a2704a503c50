package profile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// AvatarResolver turns an avatar UUID into a URL the client can load.
type AvatarResolver interface {
	AvatarURL(ctx context.Context, id uuid.UUID) (string, error)
}

// BaseURLResolver serves avatars from {Base}/img/{uuid}.
type BaseURLResolver struct {
	Base string
}

// AvatarURL joins the base URL with the avatar path.
func (r BaseURLResolver) AvatarURL(_ context.Context, id uuid.UUID) (string, error) {
	if r.Base == "" {
		return "/img/" + id.String(), nil
	}
	u, err := url.JoinPath(r.Base, "img", id.String())
	if err != nil {
		return "", fmt.Errorf("invalid avatar base url: %w", err)
	}
	return u, nil
}

// R2Config holds configuration for presigned avatar URLs on Cloudflare R2.
type R2Config struct {
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	KeyPrefix       string        // Default: "avatars/"
	URLExpiry       time.Duration // Default: 1 hour
}

// R2AvatarResolver presigns GET requests for avatar objects in an R2 bucket.
type R2AvatarResolver struct {
	presign   *s3.PresignClient
	bucket    string
	keyPrefix string
	expiry    time.Duration
}

// NewR2AvatarResolver creates a resolver from cfg.
func NewR2AvatarResolver(cfg R2Config) (*R2AvatarResolver, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("access key ID and secret access key are required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "avatars/"
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = time.Hour
	}

	client := s3.New(s3.Options{
		Region: "auto",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
	})

	return &R2AvatarResolver{
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.BucketName,
		keyPrefix: cfg.KeyPrefix,
		expiry:    cfg.URLExpiry,
	}, nil
}

// AvatarURL returns a presigned GET URL for the avatar object.
func (r *R2AvatarResolver) AvatarURL(ctx context.Context, id uuid.UUID) (string, error) {
	req, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.keyPrefix + id.String()),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = r.expiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign avatar url: %w", err)
	}
	return req.URL, nil
}
