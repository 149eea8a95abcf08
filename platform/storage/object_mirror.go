package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"shorts_backend/config"
	"shorts_backend/pkg/logging"
)

// ObjectMirror copies finished clips to an S3/MinIO bucket so they
// survive the in-memory session retention window. Mirroring is best
// effort; the local disk copy stays authoritative for serving.
type ObjectMirror struct {
	Client      *minio.Client
	Bucket      string
	Region      string
	StorageType string
}

// InitObjectMirror returns nil when no object store is configured.
func InitObjectMirror(cfg *config.Config) (*ObjectMirror, error) {
	var minioClient *minio.Client
	var err error

	// local vs s3
	switch cfg.StorageType {
	case "":
		return nil, nil
	case "minio":
		minioClient, err = minio.New(cfg.BucketEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.BucketAccessID, cfg.BucketAccessKey, ""),
			Secure: cfg.UseSSL,
		})
	case "s3":
		minioClient, err = minio.New("s3.amazonaws.com", &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.BucketAccessID, cfg.BucketAccessKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.BucketRegion,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
	if err != nil {
		logging.Logger.Error("fail InitObjectMirror", "error", err)
		return nil, err
	}

	m := &ObjectMirror{
		Client:      minioClient,
		Bucket:      cfg.BucketName,
		Region:      cfg.BucketRegion,
		StorageType: cfg.StorageType,
	}
	if err := m.EnsureBucketExists(); err != nil {
		logging.Logger.Error("fail InitObjectMirror", "error", err)
		return nil, err
	}
	logging.Logger.Info("Object mirror initialized",
		"type", cfg.StorageType,
		"bucket", cfg.BucketName,
	)
	return m, nil
}

func (m *ObjectMirror) EnsureBucketExists() error {
	ctx := context.Background()
	exists, err := m.Client.BucketExists(ctx, m.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = m.Client.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{Region: m.Region})
	if err != nil {
		if m.StorageType == "s3" {
			logging.Logger.Warn("Could not create S3 bucket (might exist or no permission)",
				"bucket", m.Bucket, "error", err)
			return nil
		}
		return err
	}
	logging.Logger.Info("Bucket created successfully")
	return nil
}

// MirrorOutputs uploads each finished clip under shorts/<sessionID>/.
func (m *ObjectMirror) MirrorOutputs(ctx context.Context, sessionID, outputDir string, outputs []string) error {
	for _, filename := range outputs {
		key := fmt.Sprintf("shorts/%s/%s", sessionID, filename)
		_, err := m.Client.FPutObject(ctx, m.Bucket, key,
			filepath.Join(outputDir, filename),
			minio.PutObjectOptions{ContentType: "video/mp4"},
		)
		if err != nil {
			return fmt.Errorf("mirror %s: %w", filename, err)
		}
	}
	return nil
}
