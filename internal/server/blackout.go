package server

import (
	"context"
	"errors"
	"time"

	"github.com/playperu/streetrep/internal/store"
	"github.com/playperu/streetrep/internal/worldevent"
)

// BlackoutLoop periodically samples the blackout scheduler around every
// player that reported a position recently.
type BlackoutLoop struct {
	svc      *Services
	interval time.Duration
	maxAge   time.Duration
	rnd      worldevent.Source
}

// NewBlackoutLoop returns a loop ticking every interval. Positions older
// than maxAge are ignored. rnd is only used from the loop goroutine.
func NewBlackoutLoop(svc *Services, interval, maxAge time.Duration, rnd worldevent.Source) *BlackoutLoop {
	svc.withDefaults()
	return &BlackoutLoop{svc: svc, interval: interval, maxAge: maxAge, rnd: rnd}
}

// Run ticks until ctx is done.
func (l *BlackoutLoop) Run(ctx context.Context) error {
	t := time.NewTicker(l.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := l.Tick(ctx, l.svc.Now()); err != nil && ctx.Err() == nil {
				l.svc.Logger.Error("blackout tick failed", "error", err)
			}
		}
	}
}

// Tick runs one sampling round and returns the events it created.
func (l *BlackoutLoop) Tick(ctx context.Context, now time.Time) ([]worldevent.Event, error) {
	positions, err := l.svc.Store.RecentPositions(ctx, now.Add(-l.maxAge))
	if err != nil {
		return nil, err
	}

	var created []worldevent.Event
	for _, pos := range positions {
		nearby, err := l.svc.Store.NearbyMarkers(ctx, pos.At, l.svc.Blackouts.Radius())
		if err != nil {
			return created, err
		}

		e, ok := l.svc.Blackouts.Tick(now, pos.At, candidates(nearby), l.rnd)
		if !ok {
			continue
		}
		e, err = l.svc.Store.CreateEvent(ctx, e)
		if errors.Is(err, store.ErrNotFound) {
			// Taken by an earlier position in this round.
			continue
		}
		if err != nil {
			return created, err
		}

		l.svc.Logger.Info("blackout",
			"event_id", e.ID,
			"marker_id", e.MarkerID,
			"near_player", pos.PlayerID,
		)
		l.svc.Broker.Broadcast(FeedEvent{Type: eventBlackout, EventID: e.ID, MarkerID: e.MarkerID, Clue: e.Clue})
		created = append(created, e)
	}
	return created, nil
}

func candidates(markers []store.Marker) []worldevent.Marker {
	out := make([]worldevent.Marker, len(markers))
	for i, m := range markers {
		out[i] = worldevent.Marker{ID: m.ID, At: m.At}
	}
	return out
}
