package cas

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dropDatabas3/authbridge/internal/metrics"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
)

const redisKeyPrefix = "cas:pgt:"

// redisStore implementa TicketStore sobre Redis. La expiración la maneja
// Redis con TTL nativo, así que no hay sweep propio; el consumo usa
// GETDEL para garantizar entrega única. Sigue siendo single-node: no hay
// replicación del store.
type redisStore struct {
	client   *redis.Client
	interval time.Duration
	log      *zap.Logger
}

// RedisStoreConfig configura el backend Redis del ticket store.
type RedisStoreConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore crea un ticket store sobre Redis y verifica la conexión.
// interval <= 0 significa sin expiración.
func NewRedisStore(cfg RedisStoreConfig, interval time.Duration) (TicketStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &redisStore{
		client:   rdb,
		interval: interval,
		log:      logger.Named("cas.ticketstore.redis"),
	}, nil
}

func (s *redisStore) Save(iou, ticket string) {
	ttl := s.interval
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(context.Background(), redisKeyPrefix+iou, ticket, ttl).Err(); err != nil {
		s.log.Error("save failed", zap.Error(err))
		return
	}
	metrics.TicketsSaved.Inc()
}

func (s *redisStore) Retrieve(iou string) (string, bool) {
	val, err := s.client.GetDel(context.Background(), redisKeyPrefix+iou).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		s.log.Error("retrieve failed", zap.Error(err))
		return "", false
	}
	metrics.TicketsConsumed.Inc()
	return val, true
}

func (s *redisStore) Stop() {
	_ = s.client.Close()
}
