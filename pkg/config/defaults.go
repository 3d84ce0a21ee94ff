package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "posada"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	// DefaultBatchWindow is the delay between a reservation request being
	// submitted and its earliest possible evaluation, so that
	// near-simultaneous contenders are all visible before any is resolved.
	DefaultBatchWindow = 2 * time.Second

	// DefaultAdmissionWaitTimeout is the caller-side budget for waiting on an
	// admission decision. Expiry abandons the wait; evaluation continues.
	DefaultAdmissionWaitTimeout = 10 * time.Second

	DefaultCommitTimeout = 5 * time.Second

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultLogLevel = "info"

	DefaultPaginationLimit = 100
)
