package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/models"
	"github.com/noah-isme/fablab-print-api/internal/observability"
	"github.com/noah-isme/fablab-print-api/internal/repository"
)

const diagnosticsCacheKey = "fablab:diag:job_counts"

// StatsService reports queue diagnostics.
type StatsService interface {
	Diagnostics(ctx context.Context) (dto.DiagnosticsResponse, error)
}

type statsService struct {
	jobs     repository.JobRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewStatsService constructs the diagnostics service. cache may be nil.
func NewStatsService(jobs repository.JobRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StatsService {
	return &statsService{
		jobs:     jobs,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "stats_service").Logger(),
		now:      time.Now,
	}
}

func (s *statsService) Diagnostics(ctx context.Context) (dto.DiagnosticsResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, diagnosticsCacheKey).Result(); err == nil {
			var response dto.DiagnosticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.StatsCache().WithLabelValues("hit").Inc()
				response.Cached = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read diagnostics cache")
		}
		observability.StatsCache().WithLabelValues("miss").Inc()
	}

	counts, err := s.jobs.CountByStatus(ctx)
	if err != nil {
		return dto.DiagnosticsResponse{}, err
	}

	response := dto.DiagnosticsResponse{
		JobCounts:   make(map[string]int64),
		GeneratedAt: s.now().UTC(),
	}
	for _, status := range []models.JobStatus{
		models.JobStatusUploaded,
		models.JobStatusPending,
		models.JobStatusReadyToPrint,
		models.JobStatusPrinting,
		models.JobStatusCompleted,
		models.JobStatusPaidPickedUp,
		models.JobStatusRejected,
	} {
		response.JobCounts[string(status)] = counts[status]
		response.TotalJobs += counts[status]
	}

	if s.cache != nil && s.cacheTTL > 0 {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, diagnosticsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store diagnostics cache")
			}
		}
	}

	return response, nil
}
