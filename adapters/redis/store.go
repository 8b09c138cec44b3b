package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"rankkit/core"
	"rankkit/engine"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string        `json:"addr" env:"RANKKIT_REDIS_ADDR"`
	Password     string        `json:"password" env:"RANKKIT_REDIS_PASSWORD"`
	DB           int           `json:"db" env:"RANKKIT_REDIS_DB"`
	PoolSize     int           `json:"pool_size" env:"RANKKIT_REDIS_POOL_SIZE"`
	MinIdleConns int           `json:"min_idle_conns" env:"RANKKIT_REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `json:"dial_timeout" env:"RANKKIT_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"RANKKIT_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" env:"RANKKIT_REDIS_WRITE_TIMEOUT"`
	// ConnectTimeout bounds the total time spent retrying the initial PING.
	ConnectTimeout time.Duration `json:"connect_timeout" env:"RANKKIT_REDIS_CONNECT_TIMEOUT"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:           "localhost:6379",
		Password:       "",
		DB:             0,
		PoolSize:       10,
		MinIdleConns:   2,
		DialTimeout:    5 * time.Second,
		ReadTimeout:    3 * time.Second,
		WriteTimeout:   3 * time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}

// Store implements engine.RankingStore on Redis.
// Data structure:
// - ranking index -> sorted set (member = participant id, score = entry score)
// - payload map / season archive -> hash (field = participant id or season id)
// - scalar archive -> string
type Store struct {
	client *redis.Client
}

// New creates a Redis-backed store, retrying the initial PING with exponential backoff.
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	if err := waitForPing(client, config.ConnectTimeout); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

func waitForPing(client *redis.Client, maxElapsed time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = maxElapsed
	b.RandomizationFactor = 0.1

	return backoff.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := client.Ping(ctx).Err()
		if err != nil && isAuthError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// isAuthError reports credential failures, which retrying cannot fix.
func isAuthError(err error) bool {
	var rerr redis.Error
	if !errors.As(err, &rerr) {
		return false
	}
	msg := rerr.Error()
	return strings.HasPrefix(msg, "NOAUTH") || strings.HasPrefix(msg, "WRONGPASS")
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// trimIndexScript reads the overflow and removes it from both keys inside one script call,
// so a concurrent write cannot land between the read and the removal.
var trimIndexScript = redis.NewScript(`
	local ids = redis.call('ZREVRANGE', KEYS[1], tonumber(ARGV[1]), -1)
	for i = 1, #ids do
		redis.call('ZREM', KEYS[1], ids[i])
		if KEYS[2] ~= '' then
			redis.call('HDEL', KEYS[2], ids[i])
		end
	end
	return ids
`)

// Exec applies ops inside MULTI/EXEC.
func (s *Store) Exec(ctx context.Context, ops ...engine.Op) error {
	if len(ops) == 0 {
		return nil
	}
	for _, op := range ops {
		if op.Key == "" {
			return fmt.Errorf("failed to exec batch: op %s has empty key", op.Kind)
		}
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			switch op.Kind {
			case engine.OpUpsertScore:
				pipe.ZAdd(ctx, op.Key, redis.Z{Score: op.Score, Member: op.Member})
			case engine.OpRemoveMember:
				pipe.ZRem(ctx, op.Key, op.Member)
			case engine.OpSetField:
				pipe.HSet(ctx, op.Key, op.Member, op.Value)
			case engine.OpDeleteField:
				pipe.HDel(ctx, op.Key, op.Member)
			default:
				return fmt.Errorf("unsupported op kind %d", op.Kind)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to exec batch: %w", err)
	}
	return nil
}

func (s *Store) TrimIndex(ctx context.Context, key, dataKey string, keep int64) ([]string, error) {
	if key == "" {
		return nil, fmt.Errorf("failed to trim index: empty key")
	}
	if keep < 0 {
		return nil, fmt.Errorf("failed to trim index %s: negative keep %d", key, keep)
	}
	removed, err := trimIndexScript.Run(ctx, s.client, []string{key, dataKey}, keep).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to trim index: %w", err)
	}
	return removed, nil
}

func (s *Store) PositionDesc(ctx context.Context, key, member string) (int64, bool, error) {
	pos, err := s.client.ZRevRank(ctx, key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query position: %w", err)
	}
	return pos, true, nil
}

func (s *Store) ScoreOf(ctx context.Context, key, member string) (float64, bool, error) {
	score, err := s.client.ZScore(ctx, key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query score: %w", err)
	}
	return score, true, nil
}

func (s *Store) RangeDesc(ctx context.Context, key string, start, stop int64) ([]core.Member, error) {
	zs, err := s.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query range: %w", err)
	}
	out := make([]core.Member, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			id = fmt.Sprint(z.Member)
		}
		out = append(out, core.Member{ID: id, Score: z.Score})
	}
	return out, nil
}

func (s *Store) MapGetMany(ctx context.Context, key string, fields []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(fields))
	if len(fields) == 0 {
		return out, nil
	}
	vals, err := s.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payloads: %w", err)
	}
	for i, v := range vals {
		switch tv := v.(type) {
		case string:
			out[fields[i]] = []byte(tv)
		case []byte:
			out[fields[i]] = tv
		}
	}
	return out, nil
}

func (s *Store) MapGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	b, err := s.client.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get field: %w", err)
	}
	return b, true, nil
}

func (s *Store) MapSet(ctx context.Context, key, field string, value []byte) error {
	if err := s.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("failed to set field: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key: %w", err)
	}
	return b, true, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ engine.RankingStore = (*Store)(nil)
