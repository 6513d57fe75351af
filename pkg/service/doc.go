// Package service exposes TWT session control as a command handler.
//
// A Service accepts one textual command per call, validates it, encodes
// it into a CONFIG_TWT vendor request and runs it through an Executor.
// Replies that carry session data are rendered into text; everything else
// completes on acknowledgement.
//
// Example usage:
//
//	engine := interaction.NewEngine(conn, interaction.Config{Interface: "wlan0"})
//	gate := capability.NewGate(capability.FeatureProber(engine, ifindex, twt.FeatureTWTAsync), capability.Config{})
//	svc := service.New(engine, gate, service.DefaultConfig())
//
//	buf := make([]byte, 512)
//	n := svc.Handle(ctx, "twt_session_get_params dialog_id 1", buf)
//
// # Result Codes
//
// Handle returns the number of bytes written on success and a negative
// errno on failure. Malformed commands return -EINVAL, asynchronous
// operations on a driver without asynchronous TWT return -EOPNOTSUPP, and
// driver errors are passed through unchanged.
//
// # Events
//
// OnVendorEvent decodes asynchronous TWT vendor events and forwards the
// rendered notification to the configured notify.Sink.
package service
