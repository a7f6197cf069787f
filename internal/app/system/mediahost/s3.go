package mediahost

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dalemusser/splereg/internal/app/system/apperr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// S3Config configures the S3-compatible backend (AWS or MinIO).
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string // blank for AWS; set for MinIO and friends
	AccessKey string // blank means the default credential chain
	SecretKey string
	PublicURL string // base URL objects are served from
}

// putObjectAPI is the subset of *s3.Client the backend needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores payloads as objects keyed folder/uuid-name.
type S3 struct {
	api       putObjectAPI
	bucket    string
	publicURL string
	log       *zap.Logger
	newID     func() string
}

// NewS3 builds an S3 uploader from cfg.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is empty")
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
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return newS3(client, cfg.Bucket, publicURL, logger), nil
}

func newS3(api putObjectAPI, bucket, publicURL string, logger *zap.Logger) *S3 {
	return &S3{
		api:       api,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       logger,
		newID:     func() string { return uuid.NewString() },
	}
}

// Upload puts the payload as a new object. Keys are never reused.
func (s *S3) Upload(ctx context.Context, p Payload, folder string) (Reference, error) {
	data, err := io.ReadAll(p.Body)
	if err != nil {
		return Reference{}, apperr.Upload("s3 upload", "could not read file", err)
	}

	key := path.Join(folder, s.newID()+"-"+safeName(p.Name))
	ct := p.MIMEType
	if ct == "" {
		ct = "application/octet-stream"
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(ct),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		s.log.Warn("s3 upload failed",
			zap.String("file", p.Name),
			zap.String("key", key),
			zap.Error(err))
		return Reference{}, apperr.Upload("s3 upload", "storage rejected the file", err)
	}

	s.log.Info("uploaded to s3",
		zap.String("file", p.Name),
		zap.String("key", key),
		zap.Int("bytes", len(data)))

	return Reference{
		URL:      s.publicURL + "/" + key,
		PublicID: key,
		Format:   formatOf(p.Name),
		Bytes:    int64(len(data)),
		Name:     p.Name,
		MIMEType: p.MIMEType,
	}, nil
}

// safeName keeps object keys to a conservative character set.
func safeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
