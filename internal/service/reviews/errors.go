package reviews

import "errors"

var (
	ErrVenueNotFound  = errors.New("venue not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrEmptyReview    = errors.New("review needs a rating or a comment")
	ErrCommentTooLong = errors.New("comment is longer than 2000 characters")
)
