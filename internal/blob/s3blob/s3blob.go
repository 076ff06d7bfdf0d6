// Package s3blob is a blob.Client over S3-compatible object storage (AWS S3,
// MinIO). Versions are object ETags and writes use conditional PutObject:
// If-Match for updates, If-None-Match: * for creates.
package s3blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/bonuskeeper/internal/blob"
	"github.com/dmitrijs2005/bonuskeeper/internal/common"
	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
)

// MessageMetadataKey holds the commit message of the last write.
const MessageMetadataKey = "commit-message"

// maxObjectBytes bounds object reads.
const maxObjectBytes = 10 << 20

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// API is the part of *s3.Client the backend uses.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Region         string
	AccessKey      string // MINIO_ROOT_USER
	SecretKey      string // MINIO_ROOT_PASSWORD
	BaseEndpoint   string // empty selects AWS
	Bucket         string
	ForcePathStyle bool
	// Timeout bounds each S3 call. Zero means no per-call timeout.
	Timeout time.Duration
}

type Client struct {
	api     API
	bucket  string
	timeout time.Duration
	log     logging.Logger
}

var _ blob.Client = (*Client)(nil)

// New builds an S3 client from static credentials.
func New(ctx context.Context, cfg Config, log logging.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3blob: bucket is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3blob: loading aws config: %w", err)
	}
	api := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	c := NewWithAPI(api, cfg.Bucket, log)
	c.timeout = cfg.Timeout
	return c, nil
}

// NewWithAPI wraps an existing S3 API implementation.
func NewWithAPI(api API, bucket string, log logging.Logger) *Client {
	if log == nil {
		log = logging.Nop{}
	}
	return &Client{api: api, bucket: bucket, log: log}
}

// callContext applies the per-call timeout, if any.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) Get(ctx context.Context, path string) (blob.Object, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return blob.Object{}, mapError(ctx, path, err, opGet)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(io.LimitReader(out.Body, maxObjectBytes+1))
	if err != nil {
		return blob.Object{}, common.Transport(err)
	}
	if len(content) > maxObjectBytes {
		return blob.Object{}, &common.RemoteError{Status: http.StatusOK, Message: fmt.Sprintf("s3: object %s exceeds %d bytes", path, maxObjectBytes)}
	}
	etag := aws.ToString(out.ETag)
	if etag == "" {
		return blob.Object{}, &common.RemoteError{Status: http.StatusOK, Message: "s3: object has no ETag"}
	}
	c.log.Debug(ctx, "s3 object read", "bucket", c.bucket, "key", path, "etag", etag)
	return blob.Object{Content: content, Version: blob.Version(etag)}, nil
}

func (c *Client) Put(ctx context.Context, path string, content []byte, version blob.Version, message string) (blob.Version, error) {
	if err := blob.CheckMessage(message); err != nil {
		return "", err
	}
	in := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/plain"),
		Metadata:    map[string]string{MessageMetadataKey: message},
	}
	if version == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(string(version))
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	out, err := c.api.PutObject(ctx, in)
	if err != nil {
		o := opUpdate
		if version == "" {
			o = opCreate
		}
		return "", mapError(ctx, path, err, o)
	}
	etag := aws.ToString(out.ETag)
	if etag == "" {
		return "", &common.RemoteError{Status: http.StatusOK, Message: "s3: put response has no ETag"}
	}
	c.log.Info(ctx, "s3 object written", "bucket", c.bucket, "key", path, "etag", etag, "created", version == "")
	return blob.Version(etag), nil
}

type op int

const (
	opGet op = iota
	opCreate
	opUpdate
)

// mapError translates SDK errors. A failed If-None-Match means the object
// exists; a failed If-Match, or a missing key on update, means the caller's
// version is stale. Other 404s (NoSuchBucket) are remote errors.
func mapError(ctx context.Context, path string, err error, o op) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return common.Transport(ctxErr)
	}

	code := ""
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
	}
	status := 0
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}
	var nsk *types.NoSuchKey

	switch {
	case errors.As(err, &nsk) || code == "NoSuchKey":
		if o == opUpdate {
			return fmt.Errorf("s3blob: %s: %w", path, common.ErrConflict)
		}
		return fmt.Errorf("s3blob: %s: %w", path, common.ErrNotFound)
	case code == "PreconditionFailed" || code == "ConditionalRequestConflict",
		status == http.StatusPreconditionFailed || status == http.StatusConflict:
		if o == opCreate {
			return fmt.Errorf("s3blob: %s: %w", path, common.ErrAlreadyExists)
		}
		return fmt.Errorf("s3blob: %s: %w", path, common.ErrConflict)
	case code == "AccessDenied" || code == "InvalidAccessKeyId" || code == "SignatureDoesNotMatch",
		status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("s3blob: %s: %v: %w", path, err, common.ErrAuth)
	case apiErr != nil || status != 0:
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return &common.RemoteError{Status: status, Message: err.Error()}
	default:
		return common.Transport(err)
	}
}
