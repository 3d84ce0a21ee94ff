package kafka_config

import "time"

const (
	// No brokers by default: decision publishing is opt-in.
	DefaultKafkaBrokers = ""

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 100 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = true

	DefaultDecisionTopic = "reservation-decisions"
	DefaultDLQTopic      = ""
)
