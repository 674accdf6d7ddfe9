package view

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rockwatch/internal/aggregate"
	"rockwatch/internal/export"
	"rockwatch/internal/fetcher"
	"rockwatch/internal/filter"
	"rockwatch/internal/metrics"
	"rockwatch/internal/model"
	"rockwatch/internal/poller"
	"rockwatch/internal/visual"
)

// DefaultRiskMapInterval is the risk-map view refresh cadence.
const DefaultRiskMapInterval = 60 * time.Second

// DefaultCenter is the initial map center.
var DefaultCenter = model.Coordinates{Lat: -23.5505, Lng: -46.6333}

// RiskMapOptions configure the risk-map view.
type RiskMapOptions struct {
	Interval  time.Duration
	Now       func() time.Time
	Publisher Publisher
}

// RiskMapState is what the risk-map view renders.
type RiskMapState struct {
	Filter     filter.Mode         `json:"filter"`
	Center     model.Coordinates   `json:"center"`
	Markers    []visual.Marker     `json:"markers"`
	Stats      aggregate.ZoneStats `json:"stats"`
	LastUpdate *model.Timestamp    `json:"last_update,omitempty"`
	Loading    bool                `json:"loading"`
	Error      string              `json:"error,omitempty"`
	UpdatedAt  *time.Time          `json:"updated_at,omitempty"`
}

// RiskMapView is the risk-map view controller.
type RiskMapView struct {
	poller *poller.Poller[model.RiskMap]
	now    func() time.Time
	logger zerolog.Logger

	mu   sync.Mutex
	mode filter.Mode
}

// OpenRiskMap enters the risk-map view and starts polling.
func OpenRiskMap(ctx context.Context, src fetcher.RiskMapFetcher, opts RiskMapOptions, logger zerolog.Logger) *RiskMapView {
	if opts.Interval <= 0 {
		opts.Interval = DefaultRiskMapInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	v := &RiskMapView{
		now:    opts.Now,
		logger: logger.With().Str("component", "risk_map_view").Logger(),
		mode:   filter.ModeAll,
	}
	v.poller = poller.Start(ctx, src.FetchRiskMap, poller.Options[model.RiskMap]{
		View:     "risk_map",
		Interval: opts.Interval,
		Reason:   poller.ReasonRiskMap,
		Size:     func(m model.RiskMap) int { return len(m.Zones) },
		Now:      opts.Now,
		OnUpdate: func(s poller.Snapshot[model.RiskMap]) {
			if opts.Publisher != nil {
				opts.Publisher.Publish(TopicRiskMap, renderRiskMap(s, v.Filter()))
			}
			if s.Err != nil {
				return
			}
			if stats := aggregate.Zones(s.Data.Zones); stats.Max.Valid {
				metrics.SetMaxRisk(stats.Max.Decimal.InexactFloat64())
			}
		},
	}, logger)
	return v
}

// SetFilter selects the visible subset; the snapshot is untouched.
func (v *RiskMapView) SetFilter(mode filter.Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
}

// Filter returns the current selection.
func (v *RiskMapView) Filter() filter.Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// Refresh triggers an out-of-band poll.
func (v *RiskMapView) Refresh() {
	v.poller.Refresh()
}

// State renders the view with the current filter.
func (v *RiskMapView) State() RiskMapState {
	return v.StateFor(v.Filter())
}

// StateFor renders the view with an explicit filter mode. Stats always cover the
// full snapshot.
func (v *RiskMapView) StateFor(mode filter.Mode) RiskMapState {
	return renderRiskMap(v.poller.Snapshot(), mode)
}

func renderRiskMap(snap poller.Snapshot[model.RiskMap], mode filter.Mode) RiskMapState {
	state := RiskMapState{
		Filter:    mode,
		Center:    DefaultCenter,
		Markers:   visual.EncodeAll(filter.Apply(snap.Data.Zones, mode)),
		Stats:     aggregate.Zones(snap.Data.Zones),
		Loading:   snap.Loading,
		Error:     errorText(snap.Err),
		UpdatedAt: updatedAt(snap.Loaded, snap.UpdatedAt),
	}
	if ts := snap.Data.Timestamp; !ts.IsZero() {
		state.LastUpdate = &ts
	}
	return state
}

// Zones returns the full, unfiltered zone snapshot.
func (v *RiskMapView) Zones() []model.RiskZone {
	zones := v.poller.Snapshot().Data.Zones
	out := make([]model.RiskZone, len(zones))
	copy(out, zones)
	return out
}

// Export serialises the full snapshot and names the download.
func (v *RiskMapView) Export() ([]byte, string, error) {
	payload, err := export.RiskMapJSON(v.Zones())
	if err != nil {
		return nil, "", err
	}
	return payload, export.FileName(v.now()), nil
}

// Close stops polling and update hooks. The last snapshot stays readable but is no
// longer refreshed.
func (v *RiskMapView) Close() {
	v.poller.Stop()
	v.logger.Debug().Msg("risk map view closed")
}
