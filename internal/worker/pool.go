package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueClosingReport = "jobs:closing_report"

// MaxReportAttempts is the attempt budget before a job lands in the DLQ.
const MaxReportAttempts = 3

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Attempts int             `json:"attempts"`
	Payload  json.RawMessage `json:"payload"`
}

// ReportJobPayload identifies the session whose closing report must be
// rendered and emailed.
type ReportJobPayload struct {
	SessionID uuid.UUID `json:"session_id"`
}

// Dispatcher enqueues async jobs into Redis lists. The worker pool dequeues
// them via BRPOP. Implements the dispatch interface the cash service expects.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueClosingReport pushes a closing-report job to Redis.
func (d *Dispatcher) EnqueueClosingReport(ctx context.Context, sessionID uuid.UUID) error {
	return d.enqueue(ctx, QueueClosingReport, "closing_report", ReportJobPayload{SessionID: sessionID}, 0)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}, attempts int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Attempts: attempts, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the report queue.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, reports *ReportWorker) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, reports)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, reports *ReportWorker) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueClosingReport).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, result[0], result[1], reports)
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, queue, raw string, reports *ReportWorker) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	var err error
	switch job.Type {
	case "closing_report":
		err = reports.Process(ctx, job.Payload)
	default:
		log.Warn().Str("type", job.Type).Msg("unknown job type — discarding")
		return
	}
	if err == nil {
		return
	}

	job.Attempts++
	if job.Attempts >= MaxReportAttempts {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}

	log.Warn().
		Str("type", job.Type).
		Int("attempt", job.Attempts).
		Err(err).
		Msg("job failed — requeueing")
	encoded, mErr := json.Marshal(job)
	if mErr != nil {
		log.Error().Err(mErr).Msg("failed to re-encode job for retry")
		return
	}
	if pErr := rdb.LPush(ctx, queue, encoded).Err(); pErr != nil {
		log.Error().Err(pErr).Msg("failed to requeue job")
	}
}
