package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/clients"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/jimlawless/whereami"
)

// CacheRepo хранит сведения о товарах в Redis с TTL. Кэш — ускорение чтения
// каталога; промах или ошибка кэша никогда не валит запрос.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.ProductInfoConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductInfoConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProducts возвращает найденные в кэше товары; промахи просто
// отсутствуют в результате.
func (r *CacheRepo) GetProducts(ctx context.Context, ids []int64) (map[int64]usecase.ProductInfo, error) {
	keys := r.cacheKeys(ids)

	values, err := r.client.Client.MGet(ctx, keys...).Result()
	if err != nil {
		r.logger.Warnf("Redis MGET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	found := make(map[int64]usecase.ProductInfo, len(values))
	for i, val := range values {
		model, ok := r.decodeValue(val, keys[i])
		if !ok {
			continue
		}

		// Расхождение ключа и содержимого — повреждённая запись, выбрасываем
		if model.ID != ids[i] {
			r.logger.Warnf("Cache ID mismatch: key_id: %d, model_id: %d", ids[i], model.ID)
			r.evict(context.Background(), keys[i])
			continue
		}

		found[ids[i]] = *r.conv.ToUseCase(model)
	}

	return found, nil
}

// SetProducts кэширует товары одним пайплайном с TTL из конфигурации.
// Ошибки записи только логируются.
func (r *CacheRepo) SetProducts(ctx context.Context, products []usecase.ProductInfo) error {
	pipeline := r.client.Client.Pipeline()
	for _, model := range r.conv.ToArrRedisModel(products) {
		data, err := json.Marshal(model)
		if err != nil {
			r.logger.Warnf("Failed to marshal product %d for caching: %v", model.ID, e.Wrap(whereami.WhereAmI(), err))
			continue
		}

		pipeline.Set(ctx, r.keyFor(model.ID), data, r.cfg.ProductTTL)
	}

	if _, err := pipeline.Exec(ctx); err != nil {
		r.logger.Warnf("Cache pipeline failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// DeleteProducts инвалидирует записи после изменения товара или списания
// остатка.
func (r *CacheRepo) DeleteProducts(ctx context.Context, ids []int64) error {
	if err := r.client.Client.Del(ctx, r.cacheKeys(ids)...).Err(); err != nil {
		r.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// decodeValue превращает сырое значение MGET в модель товара.
// false — промах кэша либо мусор (мусор логируется).
func (r *CacheRepo) decodeValue(val interface{}, key string) (*converter.ProductInfoRedisModel, bool) {
	var data []byte
	switch v := val.(type) {
	case nil:
		return nil, false
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		r.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)))
		return nil, false
	}

	var model converter.ProductInfoRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		r.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, false
	}

	return &model, true
}

func (r *CacheRepo) evict(ctx context.Context, key string) {
	if err := r.client.Client.Del(ctx, key).Err(); err != nil {
		r.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

func (r *CacheRepo) cacheKeys(ids []int64) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keyFor(id)
	}

	return keys
}

func (r *CacheRepo) keyFor(id int64) string {
	return fmt.Sprintf("product:%d", id)
}
