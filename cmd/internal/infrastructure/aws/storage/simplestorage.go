package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const basePath = "evidence/"

var ErrDisabled = errors.New("evidence storage is not configured")

type S3Client interface {
	// UploadFile stores data under key (relative to the evidence prefix) and
	// returns the object URL.
	UploadFile(ctx context.Context, data []byte, key string) (string, error)
	Enabled() bool
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type storageClient struct {
	bucket string
	region string
	client putObjectAPI
}

func NewStorageClient(ctx context.Context, bucket, region string) (S3Client, error) {
	if bucket == "" {
		return disabledClient{}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &storageClient{
		bucket: bucket,
		region: region,
		client: s3.NewFromConfig(cfg),
	}, nil
}

func (s *storageClient) Enabled() bool {
	return true
}

func (s *storageClient) UploadFile(ctx context.Context, data []byte, key string) (string, error) {
	if key == "" {
		return "", errors.New("key is empty")
	}

	fullKey := basePath + key
	mimeType := mime.TypeByExtension(filepath.Ext(key))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(data),
		ContentType: &mimeType,
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, fullKey), nil
}

type disabledClient struct{}

func Disabled() S3Client {
	return disabledClient{}
}

func (disabledClient) Enabled() bool {
	return false
}

func (disabledClient) UploadFile(context.Context, []byte, string) (string, error) {
	return "", ErrDisabled
}
