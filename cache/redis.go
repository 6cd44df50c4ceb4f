// Package cache keeps computed standings snapshots in redis so repeated
// viewers of a live tournament do not recompute the table on every poll.
// The cache is strictly an accelerator: a nil *StandingsCache (redis not
// configured) degrades to recomputation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IlyaVolvo/spin-master-sub001/models"
)

const standingsTTL = 5 * time.Minute

type StandingsCache struct {
	client *redis.Client
}

func NewStandingsCache(addr, password string, db int) (*StandingsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &StandingsCache{client: client}, nil
}

func key(tournamentID int) string {
	return fmt.Sprintf("standings:%d", tournamentID)
}

// Get returns the cached snapshot, or (nil, nil) on a miss.
func (c *StandingsCache) Get(ctx context.Context, tournamentID int) ([]*models.Standing, error) {
	if c == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, key(tournamentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var standings []*models.Standing
	if err := json.Unmarshal(raw, &standings); err != nil {
		return nil, err
	}
	return standings, nil
}

func (c *StandingsCache) Set(ctx context.Context, tournamentID int, standings []*models.Standing) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(standings)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(tournamentID), raw, standingsTTL).Err()
}

// Invalidate drops the snapshot after any result mutation.
func (c *StandingsCache) Invalidate(ctx context.Context, tournamentID int) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, key(tournamentID)).Err()
}

func (c *StandingsCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
