// Package avatar stores uploaded profile pictures and returns their public URL.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("unsupported file type")

var allowedExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Store persists an avatar and reports where it can be fetched.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// ObjectName validates the upload's extension and returns a fresh random
// name with it, plus the matching content type.
func ObjectName(filename string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ct, ok := allowedExt[ext]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext, ct, nil
}

// Disk writes avatars under Dir; the server exposes Dir at BaseURL.
type Disk struct {
	Dir     string
	BaseURL string
}

func (d Disk) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	name, _, err := ObjectName(filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create avatar directory: %w", err)
	}

	f, err := os.Create(filepath.Join(d.Dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write avatar: %w", err)
	}
	return strings.TrimRight(d.BaseURL, "/") + "/" + name, nil
}

// ObjectPutter is the slice of the S3 client the bucket store needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Bucket uploads avatars to S3 under Prefix.
type Bucket struct {
	Client  ObjectPutter
	Name    string
	Prefix  string
	BaseURL string
}

// NewBucket builds an S3 client from the default AWS credential chain.
func NewBucket(ctx context.Context, name, baseURL string) (*Bucket, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if baseURL == "" {
		baseURL = "https://" + name + ".s3.amazonaws.com"
	}
	return &Bucket{
		Client:  s3.NewFromConfig(cfg),
		Name:    name,
		Prefix:  "avatars",
		BaseURL: baseURL,
	}, nil
}

func (b *Bucket) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	name, ct, err := ObjectName(filename)
	if err != nil {
		return "", err
	}
	key := path.Join(b.Prefix, name)

	_, err = b.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.Name),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(ct),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar to s3://%s/%s: %w", b.Name, key, err)
	}
	return strings.TrimRight(b.BaseURL, "/") + "/" + key, nil
}
