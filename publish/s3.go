// Package publish copies finished videos to object storage and YouTube.
package publish

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"

	"storyreel/config"
	"storyreel/video"
)

// ObjectStore is the part of storage.S3 the publisher needs.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	Size(ctx context.Context, bucket, key string) (int64, bool, error)
}

// S3 uploads the title clip, main program, merged video and subtitles to
// <prefix>jobs/<id>/<file>.
type S3 struct {
	store  ObjectStore
	bucket string
	prefix string
}

// NewS3 creates an S3 publisher.
func NewS3(store ObjectStore, cfg config.S3Config) *S3 {
	return &S3{store: store, bucket: cfg.Bucket, prefix: cfg.Prefix}
}

func (p *S3) Name() string { return "s3" }

// Publish uploads every artifact and returns the merged video's location.
// Objects that already hold a file of the same size are left alone so a
// resumed job does not upload twice.
func (p *S3) Publish(ctx context.Context, jobID, _ string, res *video.Result) (string, error) {
	var merged string
	for _, file := range []string{res.Title, res.Main, res.Merged, res.Subtitle} {
		if file == "" {
			continue
		}
		key := p.Key(jobID, filepath.Base(file))
		if err := p.upload(ctx, file, key); err != nil {
			return "", fmt.Errorf("failed to upload %s: %w", filepath.Base(file), err)
		}
		if file == res.Merged {
			merged = fmt.Sprintf("s3://%s/%s", p.bucket, key)
		}
	}
	return merged, nil
}

// Key returns the object key of a job artifact.
func (p *S3) Key(jobID, name string) string {
	return p.prefix + path.Join("jobs", jobID, name)
}

func (p *S3) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	size, ok, err := p.store.Size(ctx, p.bucket, key)
	if err != nil {
		return err
	}
	if ok && size == info.Size() {
		log.Printf("s3://%s/%s already uploaded, skipping", p.bucket, key)
		return nil
	}

	log.Printf("📤 Uploading %s (%.2f MB) to s3://%s/%s", filepath.Base(file), float64(info.Size())/(1024*1024), p.bucket, key)
	return p.store.Put(ctx, p.bucket, key, f, contentType(file))
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".mp4":
		return "video/mp4"
	case ".srt":
		return "application/x-subrip"
	default:
		return "application/octet-stream"
	}
}
