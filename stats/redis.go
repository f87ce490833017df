package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisRecorder stores assignment counters in a Redis hash per channel.
//
// Key layout: <prefix>:channel:<channelID> is a hash of operatorID → count.
// Counters are cumulative and have no TTL; they are observability data, not
// scheduling state.
type RedisRecorder struct {
	rdb    *redis.Client
	prefix string
}

var _ Recorder = (*RedisRecorder)(nil)

// RedisRecorderOption configures a RedisRecorder.
type RedisRecorderOption func(*RedisRecorder)

// WithPrefix overrides the default "dispatch:stats" key prefix.
func WithPrefix(prefix string) RedisRecorderOption {
	return func(r *RedisRecorder) {
		r.prefix = strings.Trim(prefix, ":")
	}
}

// NewRedisRecorder creates a Redis-backed recorder.
//
// Parameters:
//   - rdb: Connected Redis client
//   - opts: Optional configuration (WithPrefix)
//
// Returns:
//   - *RedisRecorder: Recorder writing to <prefix>:channel:<id> hashes
func NewRedisRecorder(rdb *redis.Client, opts ...RedisRecorderOption) *RedisRecorder {
	r := &RedisRecorder{
		rdb:    rdb,
		prefix: "dispatch:stats",
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RecordAssignment increments the operator's field in the channel hash.
func (r *RedisRecorder) RecordAssignment(ctx context.Context, channelID, operatorID int64) error {
	if r == nil || r.rdb == nil {
		return nil
	}

	key := r.channelKey(channelID)
	field := strconv.FormatInt(operatorID, 10)

	return r.rdb.HIncrBy(ctx, key, field, 1).Err()
}

// ChannelTotals reads the channel hash back into operatorID → count.
func (r *RedisRecorder) ChannelTotals(ctx context.Context, channelID int64) (map[int64]int64, error) {
	raw, err := r.rdb.HGetAll(ctx, r.channelKey(channelID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read channel totals: %w", err)
	}

	out := make(map[int64]int64, len(raw))
	for field, value := range raw {
		op, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed operator field %q: %w", field, err)
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed count for operator %s: %w", field, err)
		}
		out[op] = n
	}

	return out, nil
}

func (r *RedisRecorder) channelKey(channelID int64) string {
	return fmt.Sprintf("%s:channel:%d", r.prefix, channelID)
}
