package service

import (
	"context"
	"sync"

	"github.com/ds124wfegd/genrelay/internal/entity"
	"github.com/ds124wfegd/genrelay/internal/pkg/kafka"
	"github.com/ds124wfegd/genrelay/internal/pkg/retry"
	"github.com/ds124wfegd/genrelay/internal/pkg/wavespeed"
)

type RelayService interface {
	// Generate submits one job upstream and polls it to a terminal state.
	// It returns when the job is done, has failed, or ctx is cancelled.
	Generate(ctx context.Context, jobID string, req *entity.GenerateRequest) (*entity.Result, error)
	Close()
}

type relayService struct {
	apiKey   string
	client   wavespeed.Client
	retry    *retry.RetryManager
	producer kafka.Producer

	// sleeps between polls; replaced in tests
	wait func(ctx context.Context) error
	// in-flight job event publishes
	events sync.WaitGroup
}

// NewRelayService takes the deployment secret (may be empty) and the upstream
// client, poll policy and event producer shared by all jobs.
func NewRelayService(apiKey string, client wavespeed.Client, retryManager *retry.RetryManager, producer kafka.Producer) RelayService {
	return &relayService{
		apiKey:   apiKey,
		client:   client,
		retry:    retryManager,
		producer: producer,
		wait:     retryManager.Wait,
	}
}
