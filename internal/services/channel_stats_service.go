package services

import (
	"context"
	"errors"
	"time"

	"github.com/otc-marketplace/backend/internal/statsparser"
	"go.uber.org/zap"
)

const statsRefreshBatch = 50

// ChannelFetcher is implemented by *statsparser.Parser.
type ChannelFetcher interface {
	Fetch(ctx context.Context, username string) (*statsparser.ChannelSnapshot, error)
}

// ChannelStatsService keeps t.me subscriber counts of channel listings fresh.
type ChannelStatsService struct {
	listings ListingStore
	fetcher  ChannelFetcher
	interval time.Duration
	log      *zap.Logger
}

func NewChannelStatsService(listings ListingStore, fetcher ChannelFetcher, interval time.Duration, log *zap.Logger) *ChannelStatsService {
	return &ChannelStatsService{listings: listings, fetcher: fetcher, interval: interval, log: log}
}

// RefreshDue updates one batch of listings whose stats are older than the interval.
// Returns the number of listings updated.
func (s *ChannelStatsService) RefreshDue(ctx context.Context) (int, error) {
	due, err := s.listings.ChannelsDueForRefresh(ctx, time.Now().Add(-s.interval), statsRefreshBatch)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, l := range due {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		if l.ChannelUsername == nil {
			continue
		}

		snap, err := s.fetcher.Fetch(ctx, *l.ChannelUsername)
		switch {
		case errors.Is(err, statsparser.ErrChannelNotFound):
			// Канал стал приватным или удалён: сбрасываем бейдж
			if err := s.listings.UpdateChannelStats(ctx, l.ID, nil, false); err != nil {
				s.log.Error("failed to store channel stats", zap.Int64("listing_id", l.ID), zap.Error(err))
				continue
			}
			s.log.Warn("channel not found on t.me", zap.Int64("listing_id", l.ID), zap.String("channel", *l.ChannelUsername))
			updated++
			continue
		case err != nil:
			s.log.Warn("failed to fetch channel stats", zap.Int64("listing_id", l.ID), zap.String("channel", *l.ChannelUsername), zap.Error(err))
			continue
		}

		if err := s.listings.UpdateChannelStats(ctx, l.ID, snap.Subscribers, snap.Verified); err != nil {
			s.log.Error("failed to store channel stats", zap.Int64("listing_id", l.ID), zap.Error(err))
			continue
		}
		updated++

		fields := []zap.Field{
			zap.Int64("listing_id", l.ID),
			zap.String("channel", snap.Username),
			zap.Bool("verified", snap.Verified),
			zap.String("lang", snap.LangGuess),
		}
		if snap.Subscribers != nil {
			fields = append(fields, zap.Int("subscribers", *snap.Subscribers))
			if l.SubscribersCount > 0 && *snap.Subscribers*2 < l.SubscribersCount {
				s.log.Warn("listing claims far more subscribers than t.me shows",
					zap.Int64("listing_id", l.ID), zap.Int("claimed", l.SubscribersCount), zap.Int("actual", *snap.Subscribers))
			}
		}
		s.log.Debug("channel stats refreshed", fields...)
	}
	return updated, nil
}
