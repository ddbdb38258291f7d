package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	errs "homerent/internal/errors"
	"homerent/internal/logger"
	"homerent/internal/models"
)

// searchScanLimit caps how many rows the Postgres fallback inspects per search
const searchScanLimit = 500

type AccommodationService struct {
	accommodations AccommodationStore
	index          AccommodationIndex
	notifier       Notifier
	now            func() time.Time
}

// NewAccommodationService accepts a nil index; search then falls back to Postgres
func NewAccommodationService(accommodations AccommodationStore, index AccommodationIndex, notifier Notifier) *AccommodationService {
	return &AccommodationService{
		accommodations: accommodations,
		index:          index,
		notifier:       notifier,
		now:            time.Now,
	}
}

func accommodationFromRequest(req *models.AccommodationRequest) (*models.Accommodation, error) {
	typ, err := models.ParseAccommodationType(req.Type)
	if err != nil {
		return nil, errs.ValidationError{Field: "type", Msg: err.Error()}
	}
	if !req.DailyRate.IsPositive() {
		return nil, errs.ValidationError{Field: "daily_rate", Msg: "must be positive"}
	}
	if req.Availability == nil || *req.Availability < 0 {
		return nil, errs.ValidationError{Field: "availability", Msg: "must be zero or more"}
	}

	return &models.Accommodation{
		Type: typ,
		Size: req.Size,
		Address: models.Address{
			Street:     req.Address.Street,
			City:       req.Address.City,
			Country:    req.Address.Country,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Latitude:   req.Address.Latitude,
			Longitude:  req.Address.Longitude,
		},
		Amenities:    req.Amenities,
		DailyRate:    req.DailyRate.Round(2),
		Availability: *req.Availability,
	}, nil
}

func (s *AccommodationService) Create(ctx context.Context, actor models.Identity, req *models.AccommodationRequest) (a *models.Accommodation, err error) {
	ctx, span := startSpan(ctx, "AccommodationService.Create")
	defer func() { endSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	a, err = accommodationFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.accommodations.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create accommodation: %w", err)
	}

	logger.WithContext(ctx).Info("Accommodation created",
		"accommodation_id", a.ID, "type", a.Type, "city", a.Address.City)

	s.reindex(ctx, a)
	s.notifier.Notify(ctx, models.EventAccommodationCreated, models.AccommodationCreatedEvent{
		AccommodationID: a.ID,
		Type:            string(a.Type),
		City:            a.Address.City,
		DailyRate:       a.DailyRate,
		Availability:    a.Availability,
		Timestamp:       s.now(),
	})

	return a, nil
}

func (s *AccommodationService) Get(ctx context.Context, id int64) (*models.Accommodation, error) {
	a, err := s.accommodations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get accommodation: %w", err)
	}
	if a == nil {
		return nil, errs.NotFoundError{Resource: "accommodation", Key: id}
	}
	return a, nil
}

func (s *AccommodationService) List(ctx context.Context, page models.Page) ([]models.Accommodation, error) {
	list, err := s.accommodations.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list accommodations: %w", err)
	}
	return list, nil
}

func (s *AccommodationService) Update(ctx context.Context, actor models.Identity, id int64, req *models.AccommodationRequest) (a *models.Accommodation, err error) {
	ctx, span := startSpan(ctx, "AccommodationService.Update")
	defer func() { endSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	a, err = accommodationFromRequest(req)
	if err != nil {
		return nil, err
	}
	a.ID = id

	ok, err := s.accommodations.Update(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to update accommodation: %w", err)
	}
	if !ok {
		return nil, errs.NotFoundError{Resource: "accommodation", Key: id}
	}

	logger.WithContext(ctx).Info("Accommodation updated", "accommodation_id", id)
	s.reindex(ctx, a)
	return a, nil
}

func (s *AccommodationService) Delete(ctx context.Context, actor models.Identity, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	ok, err := s.accommodations.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete accommodation: %w", err)
	}
	if !ok {
		return errs.NotFoundError{Resource: "accommodation", Key: id}
	}

	logger.WithContext(ctx).Info("Accommodation deleted", "accommodation_id", id)
	if s.index != nil {
		if err := s.index.Delete(ctx, id); err != nil {
			logger.WithContext(ctx).Error("Failed to remove accommodation from index", "accommodation_id", id, "error", err)
		}
	}
	return nil
}

// Search asks the index for ids and hydrates them from Postgres
func (s *AccommodationService) Search(ctx context.Context, q models.AccommodationSearchQuery, page models.Page) ([]models.Accommodation, error) {
	if s.index == nil {
		return s.searchFallback(ctx, q, page)
	}

	ids, err := s.index.Search(ctx, q, page)
	if err != nil {
		return nil, fmt.Errorf("failed to search accommodations: %w", err)
	}
	if len(ids) == 0 {
		return []models.Accommodation{}, nil
	}
	list, err := s.accommodations.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load accommodations: %w", err)
	}
	return list, nil
}

func (s *AccommodationService) searchFallback(ctx context.Context, q models.AccommodationSearchQuery, page models.Page) ([]models.Accommodation, error) {
	all, err := s.accommodations.List(ctx, models.Page{Number: 0, Size: searchScanLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list accommodations: %w", err)
	}

	matched := make([]models.Accommodation, 0)
	for _, a := range all {
		if matches(a, q) {
			matched = append(matched, a)
		}
	}

	from := page.Offset()
	if from >= len(matched) {
		return []models.Accommodation{}, nil
	}
	to := from + page.Size
	if page.Size <= 0 || to > len(matched) {
		to = len(matched)
	}
	return matched[from:to], nil
}

func matches(a models.Accommodation, q models.AccommodationSearchQuery) bool {
	if q.City != "" && !strings.EqualFold(a.Address.City, q.City) {
		return false
	}
	if q.Country != "" && !strings.EqualFold(a.Address.Country, q.Country) {
		return false
	}
	if q.Type != "" && !strings.EqualFold(string(a.Type), q.Type) {
		return false
	}
	if q.Amenity != "" && !containsFold(a.Amenities, q.Amenity) {
		return false
	}
	if q.Text != "" {
		text := strings.ToLower(q.Text)
		haystack := strings.ToLower(strings.Join([]string{
			a.Size, a.Address.Street, a.Address.City, a.Address.Country, strings.Join(a.Amenities, " "),
		}, " "))
		if !strings.Contains(haystack, text) {
			return false
		}
	}
	return true
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// reindex is best-effort; Postgres stays the source of truth
func (s *AccommodationService) reindex(ctx context.Context, a *models.Accommodation) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, a); err != nil {
		logger.WithContext(ctx).Error("Failed to index accommodation", "accommodation_id", a.ID, "error", err)
	}
}
