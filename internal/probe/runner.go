package probe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/formmatch/pkg/logger"
)

// Run checks service health, submits every case concurrently and verifies
// the responses. It returns ErrMismatch when any case failed.
func Run(ctx context.Context, config *Config, cases []Case) ([]Result, *Stats, error) {
	log := logger.Get().Named("probe")
	stats := &Stats{Cases: len(cases), StartTime: time.Now()}

	log.Info(ctx, "starting form probe",
		logger.String("baseURL", config.BaseURL),
		logger.Int("cases", len(cases)),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config.BaseURL); err != nil {
		return nil, stats, err
	}

	// Step 2: Submit and verify cases concurrently
	results := submitCases(ctx, client, config, cases)

	// Step 3: Tally
	for _, r := range results {
		if r.Status != 0 {
			stats.Submitted++
		}
		if r.Passed() {
			stats.Passed++
			if config.Verbose {
				log.Info(ctx, "case passed", logger.String("case", r.Case.Name), logger.String("request_id", r.RequestID))
			}
			continue
		}
		stats.Failed++
		log.Warn(ctx, "case failed",
			logger.String("case", r.Case.Name),
			logger.String("request_id", r.RequestID),
			logger.Int("status", r.Status),
			logger.Error(r.Err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.Failed > 0 {
		return results, stats, fmt.Errorf("%w: %d of %d cases failed", ErrMismatch, stats.Failed, stats.Cases)
	}
	return results, stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	resp, err := client.Get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// submitCases fans cases out to a worker pool; results keep case order.
func submitCases(ctx context.Context, client *HTTPClient, config *Config, cases []Case) []Result {
	workers := config.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	target := config.BaseURL + "/get_form"
	results := make([]Result, len(cases))

	jobs := make(chan int, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = submitCase(ctx, client, target, cases[idx])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range cases {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	// Cases never handed to a worker were cut off by ctx.
	for i := range results {
		if results[i].RequestID == "" {
			results[i] = Result{Case: cases[i], Err: fmt.Errorf("not submitted: %w", context.Cause(ctx))}
		}
	}
	return results
}

func submitCase(ctx context.Context, client *HTTPClient, target string, c Case) Result {
	status, body, id, err := client.PostForm(ctx, target, c.Fields)
	res := Result{Case: c, RequestID: id, Status: status}
	if err != nil {
		res.Err = err
		return res
	}
	res.Err = verifyResponse(c, status, body)
	return res
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var passRate float64
	if stats.Cases > 0 {
		passRate = float64(stats.Passed) / float64(stats.Cases) * PercentageMultiplier
	}

	log.Info(ctx, "final statistics",
		logger.Int("cases", stats.Cases),
		logger.Int("submitted", stats.Submitted),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("passRate", passRate))
}
