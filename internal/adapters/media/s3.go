// Package media checks that listing image URLs point at objects the owner
// uploaded to the listing bucket
package media

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"harborlist/internal/platform/config"
	perr "harborlist/internal/platform/errors"
	"harborlist/internal/services/listings/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Config for the S3 validator
type Config struct {
	Enabled bool
	Bucket  string
	Region  string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO
	Endpoint string
	// PublicBaseURL is the URL prefix images are served under
	PublicBaseURL string
	AccessKey     string
	SecretKey     string
	Timeout       time.Duration
}

// FromConfig reads SERVICE_S3_* values
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("SERVICE_S3_")
	return Config{
		Enabled:       c.MayBool("ENABLED", false),
		Bucket:        c.MayString("BUCKET", ""),
		Region:        c.MayString("REGION", "us-east-1"),
		Endpoint:      c.MayString("ENDPOINT", ""),
		PublicBaseURL: strings.TrimRight(c.MayString("PUBLIC_BASE_URL", ""), "/"),
		AccessKey:     c.MayString("ACCESS_KEY", ""),
		SecretKey:     c.MayString("SECRET_KEY", ""),
		Timeout:       c.MayDuration("TIMEOUT", 5*time.Second),
	}
}

type headAPI interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Validator implements domain.MediaPort against one bucket
type Validator struct {
	api     headAPI
	bucket  string
	base    string
	timeout time.Duration
}

var _ domain.MediaPort = (*Validator)(nil)

// New loads AWS config and returns a validator. Static keys are used when set,
// otherwise the default credential chain
func New(ctx context.Context, cfg Config) (*Validator, error) {
	if cfg.Bucket == "" || cfg.PublicBaseURL == "" {
		return nil, perr.InvalidArgf("s3 validator needs a bucket and a public base url")
	}
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	ac, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "load aws config")
	}
	client := s3.NewFromConfig(ac, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Validator{api: client, bucket: cfg.Bucket, base: cfg.PublicBaseURL, timeout: cfg.Timeout}, nil
}

// Validate checks every URL is under base/<owner>/ and that the object exists
func (v *Validator) Validate(ctx context.Context, ownerID string, urls []string) error {
	for _, raw := range urls {
		key, err := v.key(ownerID, raw)
		if err != nil {
			return err
		}
		if err := v.head(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) key(ownerID, raw string) (string, error) {
	rest, ok := strings.CutPrefix(raw, v.base+"/")
	if !ok {
		return "", perr.Validationf("images", "image %s is not hosted in the listing bucket", raw)
	}
	key, err := url.PathUnescape(rest)
	if err != nil || strings.Contains(key, "..") {
		return "", perr.Validationf("images", "image %s has an invalid path", raw)
	}
	if !strings.HasPrefix(key, ownerID+"/") {
		return "", perr.Validationf("images", "image %s was not uploaded by the listing owner", raw)
	}
	return key, nil
}

func (v *Validator) head(ctx context.Context, key string) error {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	_, err := v.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(v.bucket), Key: aws.String(key)})
	if err == nil {
		return nil
	}
	if notFound(err) {
		return perr.Validationf("images", "image %s does not exist", key)
	}
	return perr.Wrap(err, perr.ErrorCodeUnavailable, "image store unavailable")
}

func notFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == 404
}
