package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"dairy-backend/internal/models"
	"dairy-backend/internal/timeutil"

	"github.com/redis/go-redis/v9"
)

const (
	summaryKeyFmt = "summary:%d:%s" // collector id, YYYY-MM-DD
	summaryTTL    = 10 * time.Minute
)

var client *redis.Client

// Init initializes the Redis connection. The cache degrades gracefully:
// when Redis is unreachable every helper becomes a no-op.
func Init() error {
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis"
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

func summaryKey(collectorID int, date time.Time) string {
	return fmt.Sprintf(summaryKeyFmt, collectorID, timeutil.DateOf(date).Format(timeutil.DateLayout))
}

// GetDailySummary returns a cached collector daily summary, if present.
func GetDailySummary(ctx context.Context, collectorID int, date time.Time) (*models.CollectorDailySummary, bool) {
	if client == nil {
		return nil, false
	}
	raw, err := client.Get(ctx, summaryKey(collectorID, date)).Bytes()
	if err != nil {
		return nil, false
	}
	var summary models.CollectorDailySummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

// SetDailySummary caches a recomputed collector daily summary.
func SetDailySummary(ctx context.Context, summary *models.CollectorDailySummary) {
	if client == nil || summary == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	client.Set(ctx, summaryKey(summary.CollectorID, summary.SummaryDate), raw, summaryTTL)
}

// InvalidateDailySummary drops the cached summary for a collector+date.
// Called before a recompute so readers never see a stale penalty status.
func InvalidateDailySummary(ctx context.Context, collectorID int, date time.Time) {
	if client == nil {
		return
	}
	client.Del(ctx, summaryKey(collectorID, date))
}
