package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/pkg/log"
	"github.com/autopeer-io/association/pkg/options"
)

var _ core.ProfileStore = (*ProfileStore)(nil)

// ProfileStore keeps vehicle profiles as JSON objects in an S3 bucket.
type ProfileStore struct {
	client     *minio.Client
	bucketName string
	prefix     string
}

// NewProfileStore creates an S3 backed profile store.
func NewProfileStore(opts *options.S3Options) (*ProfileStore, error) {
	minioOpts := &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	}
	if opts.InsecureSkipVerify {
		minioOpts.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := minio.New(opts.Endpoint, minioOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ProfileStore{
		client:     client,
		bucketName: opts.BucketName,
		prefix:     strings.Trim(opts.ProfilePrefix, "/"),
	}, nil
}

// CheckBucket verifies that the profile bucket exists.
func (p *ProfileStore) CheckBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", p.bucketName)
	}
	return nil
}

// DeleteProfile removes the profile of vehicleID. A missing object is not an error.
func (p *ProfileStore) DeleteProfile(ctx context.Context, vehicleID string) error {
	key := p.objectKey(vehicleID)

	err := p.client.RemoveObject(ctx, p.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("failed to remove profile %s: %w", key, err)
	}

	log.Info("Removed vehicle profile", "bucket", p.bucketName, "key", key)
	return nil
}

func (p *ProfileStore) objectKey(vehicleID string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(vehicleID) + ".json"
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}
