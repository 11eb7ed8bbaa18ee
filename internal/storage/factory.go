package storage

import (
	"context"
	"fmt"

	"github.com/gravadigital/urna-cipa/internal/config"
	"github.com/gravadigital/urna-cipa/internal/storage/evidence"
)

// StorageType represents the type of evidence storage backend
type StorageType string

const (
	// StorageTypeLocal keeps photos on the local filesystem
	StorageTypeLocal StorageType = "local"
	// StorageTypeMinio keeps photos in a MinIO/S3 bucket
	StorageTypeMinio StorageType = "minio"
)

// Factory creates evidence stores for a configured backend
type Factory struct {
	storageType StorageType
}

// NewFactory creates a new storage factory
func NewFactory(storageType StorageType) *Factory {
	return &Factory{
		storageType: storageType,
	}
}

// CreateEvidenceStore creates an evidence store based on the configured type
func (f *Factory) CreateEvidenceStore(ctx context.Context, cfg *config.Config) (evidence.Store, error) {
	switch f.storageType {
	case StorageTypeLocal:
		return evidence.NewLocalStore(cfg.Evidence.Dir)
	case StorageTypeMinio:
		return evidence.NewMinioStore(ctx, evidence.MinioOptions{
			Endpoint:  cfg.Evidence.MinioEndpoint,
			AccessKey: cfg.Evidence.MinioAccessKey,
			SecretKey: cfg.Evidence.MinioSecretKey,
			Bucket:    cfg.Evidence.MinioBucket,
			UseSSL:    cfg.Evidence.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", f.storageType)
	}
}

// GetSupportedTypes returns a list of supported storage types
func GetSupportedTypes() []StorageType {
	return []StorageType{
		StorageTypeLocal,
		StorageTypeMinio,
	}
}

// ValidateStorageType validates if a storage type is supported
func ValidateStorageType(storageType string) (StorageType, error) {
	st := StorageType(storageType)

	for _, supported := range GetSupportedTypes() {
		if st == supported {
			return st, nil
		}
	}

	return "", fmt.Errorf("unsupported storage type: %s. Supported types: %v", storageType, GetSupportedTypes())
}

// FromConfig returns a factory for the backend named in the configuration
func FromConfig(cfg *config.Config) (*Factory, error) {
	st, err := ValidateStorageType(cfg.Evidence.Backend)
	if err != nil {
		return nil, err
	}
	return NewFactory(st), nil
}

// DefaultFactory returns a factory configured with the default storage type
func DefaultFactory() *Factory {
	return NewFactory(StorageTypeLocal)
}
