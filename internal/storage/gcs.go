// Package storage uploads pipeline artifacts to Google Cloud Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const uploadTimeout = 2 * time.Minute

// Config locates the destination bucket. CredentialsFile is optional;
// when empty the client falls back to application default credentials.
type Config struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
}

// Uploader copies local artifact files into one GCS bucket under a
// fixed key prefix.
type Uploader struct {
	client *gcs.Client
	cfg    Config
	log    *zap.Logger
}

// NewUploader builds the GCS client for cfg.
func NewUploader(ctx context.Context, cfg Config, log *zap.Logger) (*Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}

	opts := []option.ClientOption{option.WithScopes(gcs.ScopeReadWrite)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Uploader{client: client, cfg: cfg, log: log}, nil
}

func (u *Uploader) Close() error {
	return u.client.Close()
}

// objectKey joins the configured prefix with the object name using
// forward slashes regardless of platform.
func (u *Uploader) objectKey(name string) string {
	name = filepath.ToSlash(name)
	if u.cfg.Prefix == "" {
		return name
	}
	return path.Join(u.cfg.Prefix, name)
}

// UploadFile streams one local file to gs://<bucket>/<prefix>/<name>
// and returns the destination URI.
func (u *Uploader) UploadFile(ctx context.Context, localPath string, name string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	key := u.objectKey(name)
	w := u.client.Bucket(u.cfg.Bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", key, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", u.cfg.Bucket, key)
	u.log.Info("uploaded artifact",
		zap.String("local", localPath),
		zap.String("uri", uri))
	return uri, nil
}

// UploadDir uploads every regular file under dir, preserving relative
// paths as object keys. Returns the URIs written.
func (u *Uploader) UploadDir(ctx context.Context, dir string) ([]string, error) {
	var uris []string
	err := filepath.Walk(dir, func(localPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, localPath)
		if err != nil {
			return err
		}
		uri, err := u.UploadFile(ctx, localPath, rel)
		if err != nil {
			return err
		}
		uris = append(uris, uri)
		return nil
	})
	if err != nil {
		return uris, err
	}
	return uris, nil
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	default:
		return ""
	}
}
