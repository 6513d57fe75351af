// Package notify delivers decoded TWT events to their consumers.
//
// A Sink receives one Notification per asynchronous vendor event. The
// package provides sinks for the operational log, an in-process channel,
// an MQTT broker and a JSON line journal; Multi fans out to several.
package notify
