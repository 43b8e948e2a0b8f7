// Package objectstore は社員画像のバイナリを保存するオブジェクトストアの実装を提供します。
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/ogurasousui/hr-records-api/internal/platform/config"
)

// ErrInvalidKey は保存先として使えないキーが指定された場合のエラーです。
var ErrInvalidKey = errors.New("objectstore: invalid key")

// Store はキー単位でオブジェクトを保存・削除し、公開 URL を組み立てます。
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New は設定に応じたバックエンドの Store を生成します。
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case config.StorageBackendLocal:
		store, err := NewLocalStore(cfg.Local.Root, cfg.Local.BaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("local object store initialized",
			zap.String("root", cfg.Local.Root),
			zap.String("base_url", cfg.Local.BaseURL))
		return store, nil
	case config.StorageBackendS3:
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		logger.Info("s3 object store initialized",
			zap.String("bucket", cfg.S3.Bucket),
			zap.String("prefix", cfg.S3.Prefix),
			zap.String("endpoint", cfg.S3.Endpoint))
		return store, nil
	default:
		return nil, fmt.Errorf("objectstore: unsupported backend %q", cfg.Backend)
	}
}

// cleanKey はキーを正規化し、ルート外を指すものを拒否します。
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
