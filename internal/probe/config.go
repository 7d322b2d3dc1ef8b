// Package probe drives a running form service with recorded submissions
// and checks every response against the expected outcome.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every case, not only failures
}

// Case is one submission and the response the service should give for it.
type Case struct {
	Name   string            `yaml:"name"`
	Fields map[string]string `yaml:"fields"`

	// ExpectTemplate is the template name a match should return.
	ExpectTemplate string `yaml:"expect_template"`
	// ExpectTypes is the type map an unmatched submission should return.
	ExpectTypes map[string]string `yaml:"expect_types"`
}

// Result is the outcome of a single case.
type Result struct {
	Case      Case
	RequestID string
	Status    int
	Err       error
}

// Passed reports whether the response matched the expectation.
func (r Result) Passed() bool { return r.Err == nil }

// Stats holds run statistics.
type Stats struct {
	Cases     int
	Submitted int
	Passed    int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
