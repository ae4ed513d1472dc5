// Package leaderboard ranks players by REP.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Standing is one leaderboard row.
type Standing struct {
	Position int    `json:"position"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Rep      int    `json:"rep"`
}

// Board records REP totals and returns the top players.
type Board interface {
	Record(ctx context.Context, playerID, name string, rep int) error
	Top(ctx context.Context, n int) ([]Standing, error)
}

// Redis keeps the board in a sorted set, with display names in a hash
// alongside it.
type Redis struct {
	rdb   *redis.Client
	key   string
	names string
}

func NewRedis(rdb *redis.Client, key string) *Redis {
	return &Redis{rdb: rdb, key: key, names: key + ":names"}
}

// Record sets the player's score to rep. REP only grows, so GT keeps a late
// write from lowering a newer total.
func (b *Redis) Record(ctx context.Context, playerID, name string, rep int) error {
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAddGT(ctx, b.key, redis.Z{Score: float64(rep), Member: playerID})
		p.HSet(ctx, b.names, playerID, name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording %s: %w", playerID, err)
	}
	return nil
}

func (b *Redis) Top(ctx context.Context, n int) ([]Standing, error) {
	if n <= 0 {
		return []Standing{}, nil
	}
	zs, err := b.rdb.ZRevRangeWithScores(ctx, b.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading top %d: %w", n, err)
	}
	if len(zs) == 0 {
		return []Standing{}, nil
	}

	ids := make([]string, len(zs))
	for i, z := range zs {
		ids[i] = z.Member
	}
	names, err := b.rdb.HMGet(ctx, b.names, ids...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reading names: %w", err)
	}

	out := make([]Standing, len(zs))
	for i, z := range zs {
		out[i] = Standing{Position: i + 1, PlayerID: ids[i], Rep: int(z.Score)}
		if i < len(names) {
			if s, ok := names[i].(string); ok {
				out[i].Name = s
			}
		}
	}
	return out, nil
}

// Check pings Redis for the health endpoint.
func (b *Redis) Check(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Open parses rawURL and verifies the server answers.
func Open(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
