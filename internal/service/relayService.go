package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/genrelay/internal/entity"
	"github.com/sirupsen/logrus"
)

func (s *relayService) Generate(ctx context.Context, jobID string, req *entity.GenerateRequest) (*entity.Result, error) {
	apiKey, err := ResolveCredential(s.apiKey, req.APIKey)
	if err != nil {
		return nil, err
	}

	endpoint := Clean(req.APIURL)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: apiUrl is required", entity.ErrInvalidRequest)
	}
	if req.Payload == nil {
		return nil, fmt.Errorf("%w: payload must be a JSON object", entity.ErrInvalidRequest)
	}
	CleanPayload(req.Payload)

	log := logrus.WithField("job_id", jobID)
	log.WithField("prompt", req.Payload["prompt"]).Info("New job received")

	start := time.Now()
	result, attempts, err := s.run(ctx, log, endpoint, apiKey, req.Payload)

	event := entity.JobEvent{
		JobID:      jobID,
		Endpoint:   endpoint,
		Outcome:    outcomeOf(result, err),
		Attempts:   attempts,
		DurationMs: time.Since(start).Milliseconds(),
		OccurredAt: time.Now().UTC(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.events.Add(1)
	go s.publish(context.WithoutCancel(ctx), log, event)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close blocks until every job event still being published has been handed
// to the producer. Call it before closing the producer.
func (s *relayService) Close() {
	s.events.Wait()
}

func (s *relayService) run(ctx context.Context, log *logrus.Entry, endpoint, apiKey string, payload map[string]interface{}) (*entity.Result, int, error) {
	sub, err := s.client.Submit(ctx, endpoint, apiKey, payload)
	if err != nil {
		if ctxErr := contextError(ctx); ctxErr != nil {
			return nil, 0, ctxErr
		}
		log.WithError(err).Error("API refused the job")
		return nil, 0, err
	}

	if sub.StatusURL == "" {
		log.Info("Finished instantly")
		return &entity.Result{Raw: sub.Raw}, 0, nil
	}

	log.WithFields(logrus.Fields{
		"status_url":    sub.StatusURL,
		"max_attempts":  s.retry.MaxAttempts(),
		"poll_interval": s.retry.Interval().String(),
	}).Info("Polling status")

	record, attempts, err := s.poll(ctx, log, sub.StatusURL, apiKey)
	if err != nil {
		return nil, attempts, err
	}

	NormalizeOutputs(record.Record)
	log.WithField("attempts", attempts).Info("Job complete")
	return &entity.Result{Record: record.Record, Attempts: attempts}, attempts, nil
}

// poll queries statusURL until the job reaches a terminal state or the retry
// budget runs out. Transient failures use up attempts like any other poll.
func (s *relayService) poll(ctx context.Context, log *logrus.Entry, statusURL, apiKey string) (*entity.StatusRecord, int, error) {
	consecutive := 0

	for attempt := 1; ; attempt++ {
		record, err := s.client.Status(ctx, statusURL, apiKey)
		if ctxErr := contextError(ctx); ctxErr != nil {
			log.WithError(ctxErr).Warnf("Polling stopped after %d attempts", attempt)
			return nil, attempt, ctxErr
		}

		if err != nil {
			consecutive++
			if !s.retry.ShouldRetry(err, consecutive) {
				log.WithError(err).Errorf("Attempt %d: status check failed", attempt)
				return nil, attempt, err
			}
			log.WithError(err).Warnf("Attempt %d: status check failed, will retry", attempt)
		} else {
			consecutive = 0
			log.WithFields(logrus.Fields{"attempt": attempt, "status": record.Status}).Infof("Attempt %d: Status = %s", attempt, record.Status)

			if record.Succeeded() {
				return record, attempt, nil
			}
			if record.Failed() {
				log.WithField("upstream_error", record.Error).Error("Job failed")
				if record.Error != "" {
					return nil, attempt, fmt.Errorf("%w: %s", entity.ErrJobFailed, record.Error)
				}
				return nil, attempt, entity.ErrJobFailed
			}
		}

		if !s.retry.HasNext(attempt) {
			log.Errorf("Timeout: gave up after %d attempts", attempt)
			return nil, attempt, entity.ErrPollTimeout
		}

		if err := s.wait(ctx); err != nil {
			if ctxErr := contextError(ctx); ctxErr != nil {
				return nil, attempt, ctxErr
			}
			return nil, attempt, err
		}
	}
}

func (s *relayService) publish(ctx context.Context, log *logrus.Entry, event entity.JobEvent) {
	defer s.events.Done()
	if s.producer == nil {
		return
	}
	if err := s.producer.SendMessage(ctx, event.JobID, event); err != nil {
		log.WithError(err).Warn("Failed to publish job event")
	}
}

// contextError maps a finished request context to the relay's errors: a
// deadline is a timeout, anything else means the caller went away.
func contextError(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return entity.ErrPollTimeout
	default:
		return entity.ErrCanceled
	}
}

func outcomeOf(result *entity.Result, err error) entity.JobOutcome {
	switch {
	case err == nil && result != nil && result.Raw != nil:
		return entity.OutcomeInstant
	case err == nil:
		return entity.OutcomeSucceeded
	case errors.Is(err, entity.ErrJobFailed):
		return entity.OutcomeFailed
	case errors.Is(err, entity.ErrPollTimeout):
		return entity.OutcomeTimeout
	case errors.Is(err, entity.ErrUpstreamRejected):
		return entity.OutcomeRejected
	case errors.Is(err, entity.ErrCanceled):
		return entity.OutcomeCanceled
	default:
		return entity.OutcomeError
	}
}
