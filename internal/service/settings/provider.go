package settings

import (
	"sync"
	"time"

	"TapeLens/internal/domain/models"
	"TapeLens/internal/domain/repository"
	"TapeLens/pkg/config"
	"TapeLens/pkg/util"
)

// Provider adapts the application config into immutable settings snapshots.
// The driver set can be swapped between scoring passes; a pass in flight
// keeps the snapshot it started with.
type Provider struct {
	mu       sync.RWMutex
	snapshot repository.Settings
}

// NewProvider builds a provider from the analysis section of the config.
func NewProvider(cfg config.AnalysisConfig) *Provider {
	return &Provider{snapshot: fromConfig(cfg)}
}

func fromConfig(cfg config.AnalysisConfig) repository.Settings {
	return repository.Settings{
		VolumeHistoryLength:   cfg.VolumeHistoryLength,
		VolumeBurstMultiplier: cfg.VolumeBurstMultiplier,
		BandMultiplier:        cfg.BandMultiplier,
		IVHistoryLength:       cfg.IVHistoryLength,
		IVSpikeThreshold:      cfg.IVSpikeThreshold,
		EMAFastPeriod:         cfg.EMAFastPeriod,
		EMASlowPeriod:         cfg.EMASlowPeriod,
		RSIPeriod:             cfg.RSIPeriod,
		ATRPeriod:             cfg.ATRPeriod,
		TickSize:              cfg.TickSize,
		IBDuration:            cfg.IBDuration,
		CandleInterval:        cfg.CandleInterval,
		CandleHistoryLength:   cfg.CandleHistoryLength,
		SessionStart:          util.ParseClockDefault(cfg.SessionStart, 9*time.Hour+15*time.Minute),
		SessionEnd:            util.ParseClockDefault(cfg.SessionEnd, 15*time.Hour+30*time.Minute),
		OpeningWindow:         cfg.OpeningWindow,
		ClosingWindow:         cfg.ClosingWindow,
		DebounceWindow:        cfg.DebounceWindow,
		SqueezeThreshold:      cfg.SqueezeThreshold,
		Drivers:               append([]models.SignalDriver(nil), cfg.Drivers...),
	}
}

// Snapshot returns the current read-only settings.
func (p *Provider) Snapshot() repository.Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// UpdateDrivers replaces the weighted rule set for subsequent passes.
func (p *Provider) UpdateDrivers(drivers []models.SignalDriver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot.Drivers = append([]models.SignalDriver(nil), drivers...)
}

var _ repository.SettingsProvider = (*Provider)(nil)
