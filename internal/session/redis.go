package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Staged buy intent: pending:buy:{user_id} -> Entry JSON
const keyPendingBuy = "pending:buy:%d"

// Redis stores staged intents with a TTL. GETDEL makes Take atomic across
// concurrent confirm/cancel callbacks.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func (s *Redis) Stage(ctx context.Context, userID int64, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, fmt.Sprintf(keyPendingBuy, userID), b, TTLPending).Err()
}

func (s *Redis) Take(ctx context.Context, userID int64) (Entry, bool, error) {
	res, err := s.rdb.GetDel(ctx, fmt.Sprintf(keyPendingBuy, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal([]byte(res), &e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}
