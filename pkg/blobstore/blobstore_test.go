package blobstore

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/png", "paired_images/abc.png"},
		{"image/jpeg", "paired_images/abc.jpg"},
		{"IMAGE/JPEG; charset=binary", "paired_images/abc.jpg"},
		{"image/webp", "paired_images/abc.webp"},
		{"image/x-unknown", "paired_images/abc"},
		{"", "paired_images/abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectKey("paired_images", "abc", tt.contentType), tt.contentType)
	}
}

func TestS3Store_Upload(t *testing.T) {
	var body []byte
	client := &mockS3{}
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "pairs" &&
			aws.ToString(in.Key) == "paired_images/id-1.png" &&
			aws.ToString(in.ContentType) == "image/png"
	})).Run(func(args mock.Arguments) {
		body, _ = io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	store := newS3Store(client, "pairs", "https://cdn.example.com/", testLogger())
	got, err := store.Upload(context.Background(), []byte("PNGDATA"), "paired_images", "id-1", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/paired_images/id-1.png", got)
	assert.Equal(t, "PNGDATA", string(body))
	client.AssertExpectations(t)
}

func TestS3Store_UploadError(t *testing.T) {
	client := &mockS3{}
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	store := newS3Store(client, "pairs", "https://cdn.example.com", testLogger())
	_, err := store.Upload(context.Background(), []byte("x"), "f", "id", "image/png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrContentStore))
	assert.Contains(t, err.Error(), "access denied")
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.S3Config
		want string
	}{
		{"explicit", config.S3Config{Bucket: "b", PublicBaseURL: "https://img.example.com"}, "https://img.example.com"},
		{"aws virtual host", config.S3Config{Bucket: "b", Region: "eu-west-1"}, "https://b.s3.eu-west-1.amazonaws.com"},
		{"aws path style", config.S3Config{Bucket: "b", Region: "eu-west-1", UsePathStyle: true}, "https://s3.eu-west-1.amazonaws.com/b"},
		{"custom endpoint path style", config.S3Config{Bucket: "b", Endpoint: "http://localhost:9000/", UsePathStyle: true}, "http://localhost:9000/b"},
		{"custom endpoint virtual host", config.S3Config{Bucket: "b", Endpoint: "https://r2.example.com"}, "https://b.r2.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := publicBaseURL(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := publicBaseURL(config.S3Config{Bucket: "b", Endpoint: "not a url"})
	assert.True(t, errors.Is(err, utils.ErrConfigValidation))
}

func TestNewS3Store_StaticCredentials(t *testing.T) {
	store, err := NewS3Store(context.Background(),
		config.S3Config{Bucket: "pairs", Region: "us-east-1", Endpoint: "http://127.0.0.1:9000", UsePathStyle: true},
		config.Credentials{S3AccessKeyID: "AKID", S3SecretAccessKey: "secret"},
		testLogger())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/pairs", store.baseURL)
	assert.Equal(t, "pairs", store.bucket)
}

func TestLocalStore_Upload(t *testing.T) {
	dir := t.TempDir()

	t.Run("with base URL", func(t *testing.T) {
		store := NewLocalStore(config.LocalStoreConfig{Dir: dir, BaseURL: "http://localhost:5000/images/"}, testLogger())
		got, err := store.Upload(context.Background(), []byte("JPEGDATA"), "paired_images", "id-1", "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:5000/images/paired_images/id-1.jpg", got)

		data, err := os.ReadFile(filepath.Join(dir, "paired_images", "id-1.jpg"))
		require.NoError(t, err)
		assert.Equal(t, "JPEGDATA", string(data))
	})

	t.Run("file URL without base", func(t *testing.T) {
		store := NewLocalStore(config.LocalStoreConfig{Dir: dir}, testLogger())
		got, err := store.Upload(context.Background(), []byte("PNG"), "paired_images", "id-2", "image/png")
		require.NoError(t, err)

		u, err := url.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, "file", u.Scheme)
		data, err := os.ReadFile(filepath.FromSlash(u.Path))
		require.NoError(t, err)
		assert.Equal(t, "PNG", string(data))
	})

	t.Run("canceled context", func(t *testing.T) {
		store := NewLocalStore(config.LocalStoreConfig{Dir: dir}, testLogger())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := store.Upload(ctx, []byte("PNG"), "paired_images", "id-3", "image/png")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNew(t *testing.T) {
	store, err := New(context.Background(), config.UploadConfig{Store: "local", Local: config.LocalStoreConfig{Dir: t.TempDir()}},
		config.Credentials{}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(context.Background(), config.UploadConfig{Store: "ftp"}, config.Credentials{}, testLogger())
	assert.True(t, errors.Is(err, utils.ErrConfigValidation))
}
