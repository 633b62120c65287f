package main

import "time"

const (
	txQueueSize         = 1024 // capacity of the async TX queue used by send
	defaultPollInterval = 250 * time.Millisecond
	rxBackoffMin        = 20 * time.Millisecond
	rxBackoffMax        = 500 * time.Millisecond
	mdnsServiceType     = "_cansock-metrics._tcp"
	logFileMaxSizeMB    = 50
	logFileMaxBackups   = 3
)

// sleepFn allows tests to intercept backoff sleeps.
var sleepFn = time.Sleep

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > rxBackoffMax {
		d = rxBackoffMax
	}
	return d
}
