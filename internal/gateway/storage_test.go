package gateway

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	putIn  []*s3.PutObjectInput
	delIn  []*s3.DeleteObjectInput
	headIn []*s3.HeadObjectInput

	putErr  error
	delErr  error
	headErr error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putIn = append(f.putIn, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.headIn = append(f.headIn, in)
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.delIn = append(f.delIn, in)
	if f.delErr != nil {
		return nil, f.delErr
	}
	return &s3.DeleteObjectOutput{}, nil
}

var errNoSuchKey = errors.New("NotFound")

func newTestBucket(api s3API) *BucketClient {
	return &BucketClient{name: "product-thumbnails", api: api, projectURL: "https://demo.example.co"}
}

func TestUpload_UpsertOverwrites(t *testing.T) {
	api := &fakeS3{}
	b := newTestBucket(api)

	err := b.Upload(context.Background(), "products/a.jpg", strings.NewReader("data"),
		UploadOptions{Upsert: true, ContentType: "image/jpeg"})
	require.NoError(t, err)

	assert.Empty(t, api.headIn, "upsert must not pre-check")
	require.Len(t, api.putIn, 1)
	assert.Equal(t, "product-thumbnails", *api.putIn[0].Bucket)
	assert.Equal(t, "products/a.jpg", *api.putIn[0].Key)
	assert.Equal(t, "image/jpeg", *api.putIn[0].ContentType)

	data, err := io.ReadAll(api.putIn[0].Body)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestUpload_ConflictWithoutUpsert(t *testing.T) {
	api := &fakeS3{} // HeadObject succeeds, the object exists
	b := newTestBucket(api)

	err := b.Upload(context.Background(), "products/a.jpg", strings.NewReader("data"), UploadOptions{})
	require.ErrorIs(t, err, ErrObjectExists)
	assert.Empty(t, api.putIn)
}

func TestUpload_NoConflictWhenAbsent(t *testing.T) {
	api := &fakeS3{headErr: errNoSuchKey}
	b := newTestBucket(api)

	err := b.Upload(context.Background(), "products/a.jpg", strings.NewReader("data"), UploadOptions{})
	require.NoError(t, err)
	require.Len(t, api.putIn, 1)
	assert.Nil(t, api.putIn[0].ContentType)
}

func TestUpload_PutError(t *testing.T) {
	api := &fakeS3{putErr: errors.New("boom")}
	b := newTestBucket(api)

	err := b.Upload(context.Background(), "products/a.jpg", strings.NewReader("data"), UploadOptions{Upsert: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "products/a.jpg")
}

func TestRemove_MultiplePaths(t *testing.T) {
	api := &fakeS3{}
	b := newTestBucket(api)

	err := b.Remove(context.Background(), "products/a.jpg", "products/b.png")
	require.NoError(t, err)
	require.Len(t, api.delIn, 2)
	assert.Equal(t, "products/a.jpg", *api.delIn[0].Key)
	assert.Equal(t, "products/b.png", *api.delIn[1].Key)
}

func TestRemove_Error(t *testing.T) {
	api := &fakeS3{delErr: errors.New("boom")}
	b := newTestBucket(api)

	err := b.Remove(context.Background(), "products/a.jpg")
	require.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	b := newTestBucket(&fakeS3{})
	got := b.PublicURL("products/a.jpg")
	assert.Equal(t, "https://demo.example.co/storage/v1/object/public/product-thumbnails/products/a.jpg", got)
}

func TestStoragePathFromPublicURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		bucket string
		want   string
	}{
		{
			name:   "plain",
			url:    "https://demo.example.co/storage/v1/object/public/product-thumbnails/products/a.jpg",
			bucket: "product-thumbnails",
			want:   "products/a.jpg",
		},
		{
			name:   "query string survives",
			url:    "https://demo.example.co/storage/v1/object/public/product-thumbnails/image.jpg?v=123",
			bucket: "product-thumbnails",
			want:   "image.jpg?v=123",
		},
		{
			name:   "wrong bucket",
			url:    "https://demo.example.co/storage/v1/object/public/other-bucket/products/a.jpg",
			bucket: "product-thumbnails",
			want:   "",
		},
		{
			name:   "not a storage url",
			url:    "https://cdn.example.com/products/a.jpg",
			bucket: "product-thumbnails",
			want:   "",
		},
		{
			name:   "empty",
			url:    "",
			bucket: "product-thumbnails",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StoragePathFromPublicURL(tt.url, tt.bucket))
		})
	}
}

func TestStoragePathFromPublicURL_RoundTrip(t *testing.T) {
	b := newTestBucket(&fakeS3{})
	path := "products/0b9fab2c-9f16-4a2f-8f5e-63d6a5ecf1a0.webp"
	assert.Equal(t, path, StoragePathFromPublicURL(b.PublicURL(path), b.Name()))
}
