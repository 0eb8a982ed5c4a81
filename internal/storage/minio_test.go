package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMinioClient struct {
	mock.Mock
}

func (m *MockMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockMinioClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *MockMinioClient) SetBucketPolicy(ctx context.Context, bucketName, policy string) error {
	args := m.Called(ctx, bucketName, policy)
	return args.Error(0)
}

func (m *MockMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return minio.UploadInfo{}, args.Error(0)
}

func (m *MockMinioClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Error(0)
}

func (m *MockMinioClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts)
	return args.Get(0).(<-chan minio.ObjectInfo)
}

func objectChan(objects ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(objects))
	for _, o := range objects {
		ch <- o
	}
	close(ch)
	return ch
}

func TestMinioBackend_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("existing bucket is left alone", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("BucketExists", ctx, "images").Return(true, nil)

		require.NoError(t, NewMinioBackendWithClient(client, "images", "us-east-1").EnsureBucket(ctx))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing bucket is created public-read", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("BucketExists", ctx, "images").Return(false, nil)
		client.On("MakeBucket", ctx, "images", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)
		client.On("SetBucketPolicy", ctx, "images", mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "arn:aws:s3:::images/*")
		})).Return(nil)

		require.NoError(t, NewMinioBackendWithClient(client, "images", "us-east-1").EnsureBucket(ctx))
		client.AssertExpectations(t)
	})
}

func TestMinioBackend_Put(t *testing.T) {
	ctx := context.Background()
	client := new(MockMinioClient)
	body := strings.NewReader("data")
	client.On("PutObject", ctx, "images", "k.png", body, int64(4), minio.PutObjectOptions{ContentType: "image/png"}).Return(nil)

	err := NewMinioBackendWithClient(client, "images", "").Put(ctx, "k.png", body, 4, "image/png")
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestMinioBackend_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"removed", nil, false},
		{"missing key", minio.ErrorResponse{Code: "NoSuchKey"}, false},
		{"transport failure", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockMinioClient)
			client.On("RemoveObject", ctx, "images", "k.png", minio.RemoveObjectOptions{}).Return(tt.err)

			err := NewMinioBackendWithClient(client, "images", "").Delete(ctx, "k.png")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMinioBackend_List(t *testing.T) {
	now := time.Now()

	t.Run("collects objects", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("ListObjects", mock.Anything, "images", minio.ListObjectsOptions{Recursive: true}).
			Return(objectChan(
				minio.ObjectInfo{Key: "a.png", Size: 3, LastModified: now},
				minio.ObjectInfo{Key: "b.png", Size: 5, LastModified: now},
			))

		objects, err := NewMinioBackendWithClient(client, "images", "").List(context.Background())
		require.NoError(t, err)
		require.Len(t, objects, 2)
		assert.Equal(t, "b.png", objects[1].Key)
		assert.Equal(t, int64(5), objects[1].Size)
	})

	t.Run("stops on listing error", func(t *testing.T) {
		client := new(MockMinioClient)
		client.On("ListObjects", mock.Anything, "images", minio.ListObjectsOptions{Recursive: true}).
			Return(objectChan(minio.ObjectInfo{Err: errors.New("access denied")}))

		_, err := NewMinioBackendWithClient(client, "images", "").List(context.Background())
		assert.Error(t, err)
	})
}
