package scheduler

import (
	"context"
	"math/rand"
	"sync"

	"resilicore/internal/appstate"
)

// demoTemplates are the canned notifications the demo stream picks from.
var demoTemplates = []appstate.Notification{
	{
		Title:   "New Incident Detected",
		Message: "High CPU usage detected on production server",
		Type:    appstate.NotifyWarning,
	},
	{
		Title:   "Incident Resolved",
		Message: "Database connection issue has been resolved",
		Type:    appstate.NotifySuccess,
	},
	{
		Title:   "Approval Required",
		Message: "New incident requires your approval for processing",
		Type:    appstate.NotifyInfo,
	},
}

// demoFireProbability is the per-tick chance a demo notification is
// synthesized.
const demoFireProbability = 0.05

// DemoNotifications returns a stream body that occasionally injects a
// canned notification into the state container, standing in for push
// events during demos. The rand source is injectable for tests.
func DemoNotifications(state *appstate.Store, rnd *rand.Rand) func(ctx context.Context) {
	var mu sync.Mutex
	return func(context.Context) {
		mu.Lock()
		fire := rnd.Float64() < demoFireProbability
		var pick int
		if fire {
			pick = rnd.Intn(len(demoTemplates))
		}
		mu.Unlock()
		if !fire {
			return
		}
		state.AddNotification(demoTemplates[pick])
	}
}
