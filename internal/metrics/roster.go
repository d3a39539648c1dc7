package metrics

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ServiceSpec describes how one roster entry reacts to active
// incidents. DegradeThreshold is 1-based: the service reports DEGRADED
// once activeIncidents reaches it; 0 means it never degrades.
type ServiceSpec struct {
	Name              string  `yaml:"name"`
	BaseResponseMs    float64 `yaml:"base_response_ms"`
	ResponsePenaltyMs float64 `yaml:"response_penalty_ms"`
	BaseUptime        float64 `yaml:"base_uptime"`
	UptimePenalty     float64 `yaml:"uptime_penalty"`
	MinUptime         float64 `yaml:"min_uptime"`
	DegradeThreshold  int     `yaml:"degrade_threshold"`
}

type rosterFile struct {
	Services []ServiceSpec `yaml:"services"`
}

// DefaultRoster is the built-in service lineup used when no roster
// file is configured.
func DefaultRoster() []ServiceSpec {
	return []ServiceSpec{
		{Name: "API Gateway", BaseResponseMs: 120, ResponsePenaltyMs: 50, BaseUptime: 99.9, UptimePenalty: 0.5, MinUptime: 95, DegradeThreshold: 1},
		{Name: "Primary Datastore", BaseResponseMs: 25, BaseUptime: 99.9, MinUptime: 99.9},
		{Name: "Compute Layer", BaseResponseMs: 200, ResponsePenaltyMs: 100, BaseUptime: 99.5, UptimePenalty: 0.3, MinUptime: 98, DegradeThreshold: 3},
		{Name: "Telemetry", BaseResponseMs: 50, BaseUptime: 99.8, MinUptime: 99.8},
	}
}

// LoadRoster reads the service roster from a yaml file, falling back
// to the defaults when the file is absent.
func LoadRoster(path string) ([]ServiceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRoster(), nil
		}
		return nil, err
	}
	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, err
	}
	if len(rf.Services) == 0 {
		return DefaultRoster(), nil
	}
	for i := range rf.Services {
		if rf.Services[i].BaseUptime == 0 {
			rf.Services[i].BaseUptime = 99.9
		}
		if rf.Services[i].MinUptime == 0 {
			rf.Services[i].MinUptime = 95
		}
	}
	return rf.Services, nil
}
