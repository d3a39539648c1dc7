package metrics

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"log/slog"

	"resilicore/internal/incidents"
)

const (
	historyHours    = 24
	overallWindow   = 6
	healthPerHit    = 15
	healthFloor     = 20
	defaultDuration = 3600
)

// Engine derives aggregate system metrics from the normalized incident
// collection. The noise source is injectable so tests can seed it and
// assert bounds deterministically.
type Engine struct {
	services []ServiceSpec
	logger   *slog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewEngine(services []ServiceSpec, rnd *rand.Rand, logger *slog.Logger) *Engine {
	if len(services) == 0 {
		services = DefaultRoster()
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{services: services, rnd: rnd, logger: logger}
}

// Derive computes the full SystemMetrics snapshot. It never fails: any
// panic during computation degrades to a minimal WARNING object so the
// dashboard always has something to render.
func (e *Engine) Derive(incs []incidents.Incident, now time.Time) (sm SystemMetrics) {
	defer func() {
		if r := recover(); r != nil {
			if e.logger != nil {
				e.logger.Error("metrics derivation failed, returning fallback", "panic", r)
			}
			sm = fallbackMetrics(now)
		}
	}()

	dayAgo := now.Add(-24 * time.Hour)

	active := 0
	resolvedToday := 0
	var resolvedCount int
	var totalResolution float64
	for _, inc := range incs {
		if inc.Active() {
			active++
		}
		if inc.Resolved() {
			resolvedCount++
			if inc.HasDuration {
				totalResolution += float64(inc.Duration)
			} else {
				totalResolution += defaultDuration
			}
			if createdAfter(inc, dayAgo) {
				resolvedToday++
			}
		}
	}

	avgResolution := 0.0
	if resolvedCount > 0 {
		avgResolution = totalResolution / float64(resolvedCount)
	}

	history := e.healthHistory(incs, now)

	return SystemMetrics{
		TotalIncidents:    len(incs),
		ActiveIncidents:   active,
		ResolvedIncidents: resolvedToday,
		AvgResolutionTime: avgResolution,
		SystemHealth: SystemHealth{
			Overall:     overallHealth(history),
			Services:    e.serviceHealth(active),
			LastUpdated: now.UTC().Format(time.RFC3339),
		},
		HealthHistory: history,
	}
}

// healthHistory builds the 24-point hourly series, oldest first. Each
// hour starts at 100, loses 15 per incident created in that hour with a
// floor of 20, then gets a bounded random perturbation for visual
// continuity before clamping to [0,100].
func (e *Engine) healthHistory(incs []incidents.Incident, now time.Time) []HealthDataPoint {
	points := make([]HealthDataPoint, 0, historyHours)
	for i := 0; i < historyHours; i++ {
		hourStart := now.Add(-time.Duration(historyHours-1-i) * time.Hour)
		hourEnd := hourStart.Add(time.Hour)

		hits := 0
		for _, inc := range incs {
			t := incidents.ParseTime(inc.CreatedAt)
			if !t.IsZero() && !t.Before(hourStart) && t.Before(hourEnd) {
				hits++
			}
		}

		value := 100.0
		if hits > 0 {
			value = math.Max(healthFloor, 100-float64(hits)*healthPerHit)
		}
		value += e.noise()
		value = math.Max(0, math.Min(100, math.Round(value)))

		points = append(points, HealthDataPoint{
			Timestamp: hourStart.UTC().Format(time.RFC3339),
			Value:     int(value),
			Status:    levelFor(value),
		})
	}
	return points
}

// noise returns a symmetric perturbation in [-5, 5).
func (e *Engine) noise() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return (e.rnd.Float64() - 0.5) * 10
}

// overallHealth averages the most recent points of the series.
func overallHealth(history []HealthDataPoint) HealthLevel {
	if len(history) == 0 {
		return HealthWarning
	}
	window := history
	if len(window) > overallWindow {
		window = window[len(window)-overallWindow:]
	}
	sum := 0.0
	for _, p := range window {
		sum += float64(p.Value)
	}
	return levelFor(sum / float64(len(window)))
}

func levelFor(value float64) HealthLevel {
	switch {
	case value > 80:
		return HealthHealthy
	case value > 60:
		return HealthWarning
	default:
		return HealthCritical
	}
}

// serviceHealth produces the synthetic per-service figures. They
// degrade monotonically as the active incident count grows.
func (e *Engine) serviceHealth(active int) []ServiceHealth {
	out := make([]ServiceHealth, 0, len(e.services))
	for _, spec := range e.services {
		status := ServiceUp
		if spec.DegradeThreshold > 0 && active >= spec.DegradeThreshold {
			status = ServiceDegraded
		}
		uptime := spec.BaseUptime - float64(active)*spec.UptimePenalty
		if uptime < spec.MinUptime {
			uptime = spec.MinUptime
		}
		out = append(out, ServiceHealth{
			Name:         spec.Name,
			Status:       status,
			ResponseTime: spec.BaseResponseMs + float64(active)*spec.ResponsePenaltyMs,
			Uptime:       uptime,
		})
	}
	return out
}

// HistoryWindow returns the trailing portion of the health history.
func HistoryWindow(history []HealthDataPoint, hours int) []HealthDataPoint {
	if hours <= 0 || hours >= len(history) {
		return history
	}
	return history[len(history)-hours:]
}

func createdAfter(inc incidents.Incident, cutoff time.Time) bool {
	t := incidents.ParseTime(inc.CreatedAt)
	return !t.IsZero() && t.After(cutoff)
}

// fallbackMetrics is the minimal safe object returned when derivation
// itself fails.
func fallbackMetrics(now time.Time) SystemMetrics {
	return SystemMetrics{
		SystemHealth: SystemHealth{
			Overall: HealthWarning,
			Services: []ServiceHealth{
				{Name: "API Connection", Status: ServiceDown},
			},
			LastUpdated: now.UTC().Format(time.RFC3339),
		},
		HealthHistory: []HealthDataPoint{},
	}
}
