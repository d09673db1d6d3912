package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/infrastructure"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/jitter"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"

	"github.com/google/uuid"
)

// MinioInfrastructure управляет загрузкой и очисткой изображений товаров в MinIO.
type MinioInfrastructure struct {
	minioRepo         usecase.ImageRepository
	cfg               *cfg.MinIOCfg
	logger            logger.Logger
	shutdownCtx       context.Context
	wg                sync.WaitGroup
	uploadImagesLimit int
}

func NewMinioInfrastructure(minioRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	return &MinioInfrastructure{
		minioRepo:         minioRepo,
		cfg:               cfg,
		logger:            logger,
		shutdownCtx:       shutdownCtx,
		uploadImagesLimit: cfg.UploadImagesLimit,
	}
}

// UploadImages параллельно загружает изображения товара, ограничивая число
// одновременных операций семафором. Первая ошибка отменяет остальные
// загрузки; уже загруженные объекты зачищаются в фоне.
func (m *MinioInfrastructure) UploadImages(ctx context.Context, req *usecase.UploadImagesReq) (*usecase.UploadImagesRes, error) {
	const op = "MinioInfrastructure.UploadImages"

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		keys     = make([]string, 0, len(req.Images))
		firstErr error
	)
	sem := make(chan struct{}, m.uploadImagesLimit)

	var uploadWg sync.WaitGroup
	for _, image := range req.Images {
		uploadWg.Add(1)
		go func() {
			defer uploadWg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			key, err := m.uploadOne(ctx, req.Name, image)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			keys = append(keys, key)
		}()
	}
	uploadWg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		if len(keys) > 0 {
			m.wg.Add(1)
			go m.cleanupUploadedKeys(keys)
		}
		return nil, e.Wrap(op, firstErr)
	}

	return usecase.NewUploadImagesRes(keys), nil
}

func (m *MinioInfrastructure) uploadOne(ctx context.Context, productName string, image usecase.ProductImage) (string, error) {
	ext, err := infrastructure.GetExtensionFromMIME(image.MimeType)
	if err != nil {
		return "", fmt.Errorf("invalid mime type %s for %s: %w", image.MimeType, image.Name, err)
	}

	imageID := uuid.NewString()
	objKey := fmt.Sprintf("%s/%s-%s.%s", productName, image.Name, imageID, ext)
	newImage := domain.NewImage(imageID, m.cfg.BucketName, objKey, image.Data, &image.Size, &image.MimeType)

	key, err := m.minioRepo.Upload(ctx, newImage)
	if err != nil {
		return "", fmt.Errorf("upload %s failed: %w", image.Name, err)
	}

	return key, nil
}

// CleanupImages запускает фоновую очистку указанных ключей MinIO
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет объекты из MinIO, повторяя неудачные попытки
// с экспоненциальной задержкой и jitter.
func (m *MinioInfrastructure) cleanupUploadedKeys(keys []string) {
	defer m.wg.Done()
	const op = "MinioInfrastructure.cleanupUploadedKeys"
	m.logger.Infof("%s: Cleaning up %d uploaded keys", op, len(keys))

	ctx, cancel := context.WithTimeout(m.shutdownCtx, 30*time.Second)
	defer cancel()

	const maxAttempts = 3
	for _, key := range keys {
		for attempt := 0; attempt < maxAttempts; attempt++ {
			if err := m.minioRepo.Delete(ctx, key); err == nil {
				break
			}

			if ctx.Err() != nil {
				m.logger.Warnf("cleanup interrupted by shutdown, key=%v", key)
				return
			}

			if attempt == maxAttempts-1 {
				m.logger.Warnf("%s: giving up on key=%v after %d attempts", op, key, maxAttempts)
				break
			}

			// Jitter распределяет повторы конкурирующих горутин во времени
			select {
			case <-time.After(jitter.Backoff(time.Second, 10*time.Second, attempt, jitter.DefaultJitter)):
			case <-ctx.Done():
				m.logger.Warnf("cleanup interrupted by shutdown during backoff, key=%v", key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает завершения всех фоновых задач очистки с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
