// Package files stores idea and message attachments. Uploads go to an
// S3-compatible bucket when one is configured, otherwise to a local
// directory served by the API itself.
package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"ideagate/api/internal/util"
)

// Only document formats are accepted as attachments.
var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// AllowedExtension reports whether the file name carries an accepted
// document extension.
func AllowedExtension(name string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// MediaTypeFor returns the content type for an accepted file name.
func MediaTypeFor(name string) string {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// StoredFile is the retrievable reference recorded on the owning
// entity, verbatim.
type StoredFile struct {
	Name      string
	URL       string
	MediaType string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type Service struct {
	client    *minio.Client
	bucket    string
	publicURL string
	localDir  string
}

// NewLocal stores uploads under dir and returns URLs below /uploads/.
func NewLocal(dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Service{localDir: dir}, nil
}

// NewMinio stores uploads in an S3-compatible bucket, creating the
// bucket on first use.
func NewMinio(ctx context.Context, cfg MinioConfig) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}

	return &Service{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

// ServesLocal reports whether uploads live on local disk, in which
// case the HTTP layer mounts the directory under /uploads/.
func (s *Service) ServesLocal() bool {
	return s.client == nil
}

func (s *Service) LocalDir() string {
	return s.localDir
}

// Store saves the upload under a collision-free object name and
// returns the reference to record. The original file name survives in
// the reference, not in the object key.
func (s *Service) Store(ctx context.Context, name string, r io.Reader, size int64) (StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(name))
	mediaType := MediaTypeFor(name)
	if mediaType == "" {
		return StoredFile{}, fmt.Errorf("unsupported attachment type %q", ext)
	}

	objectName := util.NewID("att") + ext

	if s.client != nil {
		_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
			ContentType: mediaType,
		})
		if err != nil {
			return StoredFile{}, fmt.Errorf("store attachment: %w", err)
		}
		return StoredFile{Name: name, URL: s.publicURL + "/" + objectName, MediaType: mediaType}, nil
	}

	path := filepath.Join(s.localDir, objectName)
	out, err := os.Create(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("create attachment file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		_ = os.Remove(path)
		return StoredFile{}, fmt.Errorf("write attachment file: %w", err)
	}
	if err := out.Close(); err != nil {
		return StoredFile{}, fmt.Errorf("close attachment file: %w", err)
	}
	return StoredFile{Name: name, URL: "/uploads/" + objectName, MediaType: mediaType}, nil
}
