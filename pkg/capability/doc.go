// Package capability caches whether the driver supports asynchronous TWT.
//
// A Gate probes the driver at most once and answers from the cached
// verdict afterwards. Concurrent first callers share a single probe.
// A failed probe is cached as Unsupported; only Invalidate forgets the
// verdict.
//
// A Store persists verdicts across restarts:
//
//	store := capability.NewStore("/var/lib/twt/capability.json")
//	gate := capability.NewGate(capability.FeatureProber(engine, ifindex, twt.FeatureTWTAsync),
//	    capability.Config{Interface: "wlan0", Store: store})
//	_ = gate.Restore()
package capability
