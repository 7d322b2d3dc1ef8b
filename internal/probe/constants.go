package probe

import "time"

// HTTP status code constants.
const (
	StatusOK = 200
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	DefaultWorkers          = 4
	DefaultTimeout          = 10 * time.Second
)

// Report configuration constants.
const (
	PercentageMultiplier = 100
)

// RequestIDHeader tags each submission so it can be found in access logs.
const RequestIDHeader = "X-Request-Id"
