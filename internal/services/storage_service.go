// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/serramalhas/malhas-backend/internal/config"
)

// StorageService archives generated documents and catalog images in S3, or
// in a local directory when no AWS credentials are configured.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
	IsPublic     bool
}

const documentURLExpiry = 15 * time.Minute

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		logrus.WithField("dir", config.Documents.LocalDir).Info("S3 not configured, storing files locally")
		return &StorageService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// IsLocal reports whether files go to the local directory.
func (s *StorageService) IsLocal() bool {
	return s.s3Client == nil
}

// Put stores data under folder with a generated key derived from filename.
func (s *StorageService) Put(data []byte, filename, contentType string, options UploadOptions) (*UploadResult, error) {
	if options.MaxSize > 0 && int64(len(data)) > options.MaxSize {
		return nil, newValidationError("file", fmt.Sprintf("file size %d bytes exceeds maximum allowed size %d bytes", len(data), options.MaxSize))
	}
	if err := checkExtension(filename, options.AllowedTypes); err != nil {
		return nil, err
	}

	key := s.generateFileName(filename, options.Folder)
	if s.s3Client != nil {
		return s.uploadToS3(data, key, contentType, options.IsPublic)
	}
	return s.uploadToLocal(data, key, contentType)
}

// UploadFile stores a multipart upload, validating size and extension first.
func (s *StorageService) UploadFile(file multipart.File, header *multipart.FileHeader, options UploadOptions) (*UploadResult, error) {
	if options.MaxSize > 0 && header.Size > options.MaxSize {
		return nil, newValidationError("file", fmt.Sprintf("file size %d bytes exceeds maximum allowed size %d bytes", header.Size, options.MaxSize))
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return s.Put(fileBytes, header.Filename, header.Header.Get("Content-Type"), options)
}

func checkExtension(filename string, allowedTypes []string) error {
	if len(allowedTypes) == 0 {
		return nil
	}
	fileExt := strings.ToLower(filepath.Ext(filename))
	for _, allowedType := range allowedTypes {
		if fileExt == allowedType {
			return nil
		}
	}
	return newValidationError("file", fmt.Sprintf("file type %s is not allowed", fileExt))
}

func (s *StorageService) uploadToS3(fileBytes []byte, key, contentType string, isPublic bool) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	}

	if isPublic {
		params.ACL = aws.String("public-read")
	}

	if _, err := s.s3Client.PutObject(params); err != nil {
		return nil, dependencyError("upload to S3", err)
	}

	url := s.getS3URL(key)
	if !isPublic {
		if signed, err := s.GeneratePresignedURL(key, documentURLExpiry); err == nil {
			url = signed
		}
	}

	return &UploadResult{
		URL:      url,
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	path := filepath.Join(s.config.Documents.LocalDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, dependencyError("create storage dir", err)
	}
	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		return nil, dependencyError("write file", err)
	}

	return &UploadResult{
		URL:      s.localURL(key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) DeleteFile(key string) error {
	if s.s3Client == nil {
		path := filepath.Join(s.config.Documents.LocalDir, filepath.FromSlash(key))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return dependencyError("delete file", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return dependencyError("delete file from S3", err)
	}
	return nil
}

// URL returns a download link for a stored key: presigned on S3, the public
// document URL for local storage.
func (s *StorageService) URL(key string) (string, error) {
	if s.s3Client == nil {
		return s.localURL(key), nil
	}
	return s.GeneratePresignedURL(key, documentURLExpiry)
}

func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

func (s *StorageService) GetDefaultUploadOptions(category string) UploadOptions {
	switch category {
	case "documents":
		return UploadOptions{
			Folder:       "documents",
			MaxSize:      20 * 1024 * 1024, // 20MB
			AllowedTypes: []string{".pdf"},
			IsPublic:     false,
		}
	case "catalogs":
		return UploadOptions{
			Folder:       "catalogs",
			MaxSize:      20 * 1024 * 1024, // 20MB
			AllowedTypes: []string{".pdf"},
			IsPublic:     false,
		}
	case "products":
		return UploadOptions{
			Folder:       "products",
			MaxSize:      10 * 1024 * 1024, // 10MB
			AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif"},
			IsPublic:     true,
		}
	default:
		return UploadOptions{
			Folder:       "general",
			MaxSize:      5 * 1024 * 1024, // 5MB
			AllowedTypes: []string{".jpg", ".jpeg", ".png", ".pdf"},
			IsPublic:     false,
		}
	}
}

// generateFileName keeps the readable document name and prefixes it with
// a short unique id: folder/20260309_1a2b3c4d_Orcamento_000042.pdf.
func (s *StorageService) generateFileName(originalName, folder string) string {
	id := uuid.New()

	base := filepath.Base(originalName)
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s_%s", timestamp, id.String()[:8], base)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}

	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

func (s *StorageService) localURL(key string) string {
	return strings.TrimRight(s.config.Documents.PublicURL, "/") + "/" + key
}

// ValidateImage checks the file signature of an uploaded image.
func (s *StorageService) ValidateImage(file multipart.File) error {
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind file: %w", err)
	}

	if !isValidImageType(buffer[:n]) {
		return newValidationError("file", "invalid image file")
	}
	return nil
}

func isValidImageType(buffer []byte) bool {
	// JPEG
	if len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF {
		return true
	}

	// PNG
	if len(buffer) >= 8 && buffer[0] == 0x89 && buffer[1] == 0x50 && buffer[2] == 0x4E && buffer[3] == 0x47 {
		return true
	}

	// GIF
	if len(buffer) >= 6 && (string(buffer[0:6]) == "GIF87a" || string(buffer[0:6]) == "GIF89a") {
		return true
	}

	return false
}
