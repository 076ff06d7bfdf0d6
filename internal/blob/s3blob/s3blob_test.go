package s3blob

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bonuskeeper/internal/common"
)

// fakeS3 honours If-Match / If-None-Match the way S3 does.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func etag(b []byte) string {
	sum := md5.Sum(b)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b)), ETag: aws.String(etag(b))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	cur, exists := f.objects[key]
	if in.IfNoneMatch != nil && exists {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}
	if in.IfMatch != nil {
		if !exists {
			return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
		}
		if aws.ToString(in.IfMatch) != etag(cur) {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
		}
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = b
	f.meta[key] = in.Metadata
	return &s3.PutObjectOutput{ETag: aws.String(etag(b))}, nil
}

func responseError(status int) error {
	return apiResponseError(status, errors.New("http error"))
}

// apiResponseError is what the SDK returns for an S3 error response: the
// HTTP status wrapping the decoded API error.
func apiResponseError(status int, err error) error {
	return &awshttp.ResponseError{ResponseError: &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
		Err:      err,
	}}
}

// blockingS3 answers only when the call context is done.
type blockingS3 struct {
	hadDeadline bool
}

func (b *blockingS3) GetObject(ctx context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	_, b.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingS3) PutObject(ctx context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	_, b.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return nil, ctx.Err()
}

// bigS3 serves an object one byte over the read limit.
type bigS3 struct{ fakeS3 }

func (b *bigS3) GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body := strings.NewReader(strings.Repeat("a", maxObjectBytes+1))
	return &s3.GetObjectOutput{Body: io.NopCloser(body), ETag: aws.String(`"e"`)}, nil
}

func TestCreateReadUpdate(t *testing.T) {
	api := newFakeS3()
	c := NewWithAPI(api, "bucket", nil)
	ctx := context.Background()

	_, err := c.Get(ctx, "bonus_data.json")
	require.ErrorIs(t, err, common.ErrNotFound)

	v1, err := c.Put(ctx, "bonus_data.json", []byte("one"), "", "Create bonus data")
	require.NoError(t, err)

	obj, err := c.Get(ctx, "bonus_data.json")
	require.NoError(t, err)
	assert.Equal(t, "one", string(obj.Content))
	assert.Equal(t, v1, obj.Version)

	v2, err := c.Put(ctx, "bonus_data.json", []byte("two"), v1, "Update bonus data")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
	assert.Equal(t, "Update bonus data", api.meta["bonus_data.json"][MessageMetadataKey])
}

func TestPut_Preconditions(t *testing.T) {
	api := newFakeS3()
	c := NewWithAPI(api, "bucket", nil)
	ctx := context.Background()

	v, err := c.Put(ctx, "f", []byte("x"), "", "create")
	require.NoError(t, err)

	_, err = c.Put(ctx, "f", []byte("y"), "", "create again")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = c.Put(ctx, "f", []byte("y"), `"stale"`, "update")
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = c.Put(ctx, "missing", []byte("y"), v, "update")
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = c.Put(ctx, "f", []byte("y"), v, "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestMapError(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		err  error
		op   op
		want error
	}{
		{"412 on create", responseError(http.StatusPreconditionFailed), opCreate, common.ErrAlreadyExists},
		{"409 on update", responseError(http.StatusConflict), opUpdate, common.ErrConflict},
		{"403", responseError(http.StatusForbidden), opGet, common.ErrAuth},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, opGet, common.ErrAuth},
		{"no such key on get", &types.NoSuchKey{}, opGet, common.ErrNotFound},
		{"no such key code on get", apiResponseError(http.StatusNotFound, &smithy.GenericAPIError{Code: "NoSuchKey"}), opGet, common.ErrNotFound},
		{"no such key on update", apiResponseError(http.StatusNotFound, &smithy.GenericAPIError{Code: "NoSuchKey"}), opUpdate, common.ErrConflict},
		{"dial", errors.New("dial tcp: connection refused"), opGet, common.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(ctx, "k", tt.err, tt.op), tt.want)
		})
	}

	var re *common.RemoteError
	require.True(t, errors.As(mapError(ctx, "k", responseError(http.StatusServiceUnavailable), opGet), &re))
	assert.Equal(t, http.StatusServiceUnavailable, re.Status)

	for _, err := range []error{
		apiResponseError(http.StatusNotFound, &smithy.GenericAPIError{Code: "NoSuchBucket"}),
		responseError(http.StatusNotFound),
	} {
		mapped := mapError(ctx, "k", err, opGet)
		assert.NotErrorIs(t, mapped, common.ErrNotFound)
		require.True(t, errors.As(mapped, &re))
		assert.Equal(t, http.StatusNotFound, re.Status)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, mapError(canceled, "k", errors.New("x"), opGet), common.ErrTransport)
}

func TestNew_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) API {
		for _, fn := range optFns {
			fn(&opts)
		}
		return newFakeS3()
	}

	c, err := New(context.Background(), Config{
		Region:         "us-east-1",
		AccessKey:      "minioadmin",
		SecretKey:      "minioadmin",
		BaseEndpoint:   "http://127.0.0.1:9000",
		Bucket:         "bonus",
		ForcePathStyle: true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "bonus", c.bucket)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.Error(t, err)

	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = New(context.Background(), Config{Bucket: "b"}, nil)
	assert.Error(t, err)
}

func TestNew_TimeoutBoundsCalls(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	api := &blockingS3{}
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(aws.Config, ...func(*s3.Options)) API { return api }

	c, err := New(context.Background(), Config{Bucket: "b", Timeout: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "f")
	assert.True(t, api.hadDeadline)
	assert.ErrorIs(t, err, common.ErrTransport)

	api.hadDeadline = false
	_, err = c.Put(context.Background(), "f", []byte("x"), "", "create")
	assert.True(t, api.hadDeadline)
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestGet_OversizedObject(t *testing.T) {
	c := NewWithAPI(&bigS3{}, "bucket", nil)
	_, err := c.Get(context.Background(), "f")

	var re *common.RemoteError
	require.True(t, errors.As(err, &re))
	assert.NotErrorIs(t, err, common.ErrCorruptDocument)
}
