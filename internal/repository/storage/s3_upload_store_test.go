package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	bucketExists bool
	created      bool
	headErr      error
	objects      map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if !f.bucketExists {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = true
	f.bucketExists = true
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3UploadStore_EnsureBucket(t *testing.T) {
	fake := newFakeS3()
	store := &S3UploadStore{client: fake, bucket: "ledger-uploads"}

	require.NoError(t, store.ensureBucket(context.Background()))
	assert.True(t, fake.created)

	// existing bucket is left alone
	fake.created = false
	require.NoError(t, store.ensureBucket(context.Background()))
	assert.False(t, fake.created)
}

func TestS3UploadStore_EnsureBucketPermissionDenied(t *testing.T) {
	fake := newFakeS3()
	fake.headErr = errors.New("forbidden")
	store := &S3UploadStore{client: fake, bucket: "ledger-uploads"}

	err := store.ensureBucket(context.Background())
	require.Error(t, err)
	assert.False(t, fake.created)
}

func TestS3UploadStore_SaveOpenRemove(t *testing.T) {
	fake := newFakeS3()
	store := &S3UploadStore{client: fake, bucket: "ledger-uploads", prefix: "imports"}
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a.csv", strings.NewReader("title,type,value,category\n")))
	assert.Contains(t, fake.objects, "imports/a.csv")

	rc, err := store.Open(ctx, "a.csv")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "title,type,value,category\n", string(got))

	require.NoError(t, store.Remove(ctx, "a.csv"))
	assert.NotContains(t, fake.objects, "imports/a.csv")

	_, err = store.Open(ctx, "a.csv")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestS3UploadStore_RejectsTraversal(t *testing.T) {
	store := &S3UploadStore{client: newFakeS3(), bucket: "b", prefix: "imports"}

	err := store.Save(context.Background(), "../escape.csv", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidUploadName)
}
