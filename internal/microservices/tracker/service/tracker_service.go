package service

import (
	"context"
	"time"

	"crustalyst/internal/microservices/tracker/models"
	"crustalyst/internal/microservices/tracker/repository"
)

// prepTime is the kitchen estimate added to created_at for ongoing orders.
const prepTime = 20 * time.Minute

const (
	defaultTimelineLimit = 50
	maxTimelineLimit     = 200
)

type TrackerServiceInterface interface {
	GetOrderView(ctx context.Context, id int) (models.OrderView, bool, error)
	GetOrderTimeline(ctx context.Context, id, limit, offset int) (models.Timeline, error)
}

type TrackerService struct {
	repo repository.TrackerRepoInterface
}

func NewTrackerService(repo repository.TrackerRepoInterface) *TrackerService {
	return &TrackerService{repo: repo}
}

func (s *TrackerService) GetOrderView(ctx context.Context, id int) (models.OrderView, bool, error) {
	v, ok, err := s.repo.GetOrderView(ctx, id)
	if err != nil || !ok {
		return v, ok, err
	}
	if v.Status.Ongoing() {
		eta := v.CreatedAt.Add(prepTime)
		v.EstimatedCompletion = &eta
	}
	return v, true, nil
}

func (s *TrackerService) GetOrderTimeline(ctx context.Context, id, limit, offset int) (models.Timeline, error) {
	if limit <= 0 {
		limit = defaultTimelineLimit
	}
	if limit > maxTimelineLimit {
		limit = maxTimelineLimit
	}
	if offset < 0 {
		offset = 0
	}
	events, err := s.repo.GetOrderTimeline(ctx, id, limit, offset)
	if err != nil {
		return models.Timeline{}, err
	}
	return models.Timeline{OrderID: id, Events: events}, nil
}
