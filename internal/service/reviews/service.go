package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirinyoku/reserveme/internal/domain"
	"github.com/kirinyoku/reserveme/internal/repository"
)

const maxCommentLen = 2000

type Store interface {
	ListByVenue(ctx context.Context, venueID int64) ([]domain.Review, error)
	Create(ctx context.Context, rv *domain.Review) error
}

type VenueChecker interface {
	ExistsActive(ctx context.Context, venueID int64) (bool, error)
}

type ChangeNotifier interface {
	VenueChanged(ctx context.Context, venueID int64)
}

type Service struct {
	store    Store
	venues   VenueChecker
	notifier ChangeNotifier
}

func New(store Store, venues VenueChecker, notifier ChangeNotifier) *Service {
	return &Service{
		store:    store,
		venues:   venues,
		notifier: notifier,
	}
}

// List returns the venue's reviews, newest first. An unknown venue has no
// reviews.
func (s *Service) List(ctx context.Context, venueID int64) ([]domain.Review, error) {
	const op = "service.reviews.List"

	out, err := s.store.ListByVenue(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Create stores a review of an active venue. userID is nil for anonymous
// reviews.
//
// Parameters:
//   - ctx: request-scoped context.
//   - venueID: the reviewed venue.
//   - userID: optional author.
//   - rating: optional score from domain.MinRating to domain.MaxRating.
//   - comment: optional free text, trimmed.
//
// Returns:
//   - *domain.Review: the stored review.
//   - error: reviews.ErrInvalidRating, reviews.ErrCommentTooLong or
//     reviews.ErrEmptyReview on bad input.
//   - error: reviews.ErrVenueNotFound if the venue is missing, inactive or deleted.
//   - error: reviews.ErrUserNotFound if userID does not exist.
func (s *Service) Create(
	ctx context.Context,
	venueID int64,
	userID *string,
	rating *int,
	comment *string,
) (*domain.Review, error) {
	const op = "service.reviews.Create"

	if rating != nil && (*rating < domain.MinRating || *rating > domain.MaxRating) {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidRating)
	}

	if comment != nil {
		c := strings.TrimSpace(*comment)
		if utf8.RuneCountInString(c) > maxCommentLen {
			return nil, fmt.Errorf("%s:%w", op, ErrCommentTooLong)
		}
		comment = &c
		if c == "" {
			comment = nil
		}
	}

	if rating == nil && comment == nil {
		return nil, fmt.Errorf("%s:%w", op, ErrEmptyReview)
	}

	ok, err := s.venues.ExistsActive(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, ErrVenueNotFound)
	}

	rv := &domain.Review{
		UserID:  userID,
		VenueID: venueID,
		Rating:  rating,
		Comment: comment,
	}

	if err := s.store.Create(ctx, rv); err != nil {
		// The venue was just checked, so a missing reference is the author.
		if userID != nil && errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if userID == nil {
		rv.ReviewerName = domain.AnonymousReviewer
	}

	if s.notifier != nil {
		s.notifier.VenueChanged(ctx, venueID)
	}

	return rv, nil
}
