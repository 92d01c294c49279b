package services

import (
	"time"

	apperrors "github.com/vzwork/locus/internal/errors"
	"github.com/vzwork/locus/internal/models"

	"gorm.io/gorm"
)

// Removal gates: a removed interaction only leaves the windows it is still
// inside, measured from the moment the interaction originally happened.
var removalGates = []struct {
	suffix string
	within time.Duration
}{
	{"_day", 24 * time.Hour},
	{"_week", 7 * 24 * time.Hour},
	{"_month", 30 * 24 * time.Hour},
	{"_year", 365 * 24 * time.Hour},
}

// InteractionService applies real-time reader interactions to the counters.
// Every mutation is a single atomic column update; the decaying windows all
// move together so the batch advance only has to shift history.
type InteractionService struct {
	db *gorm.DB
}

// NewInteractionService creates a new interaction service.
func NewInteractionService(db *gorm.DB) *InteractionService {
	return &InteractionService{db: db}
}

// AddPositive records an upvote on a post.
func (s *InteractionService) AddPositive(postID string) error {
	return s.update(&models.Post{}, postID, incrementAll("positive"))
}

// RemovePositive withdraws an upvote given at interactedAt.
func (s *InteractionService) RemovePositive(postID string, interactedAt time.Time) error {
	return s.update(&models.Post{}, postID, decrementGated("positive", time.Since(interactedAt)))
}

// AddStar records a star on a post. A star also counts toward the positive
// ranking metric.
func (s *InteractionService) AddStar(postID string) error {
	updates := incrementAll("stars")
	for k, v := range incrementAll("positive") {
		updates[k] = v
	}
	return s.update(&models.Post{}, postID, updates)
}

// RemoveStar withdraws a star given at interactedAt.
func (s *InteractionService) RemoveStar(postID string, interactedAt time.Time) error {
	age := time.Since(interactedAt)
	updates := decrementGated("stars", age)
	for k, v := range decrementGated("positive", age) {
		updates[k] = v
	}
	return s.update(&models.Post{}, postID, updates)
}

// AddBook records a bookmark on a post. A bookmark also counts toward the
// positive ranking metric.
func (s *InteractionService) AddBook(postID string) error {
	updates := incrementAll("books")
	for k, v := range incrementAll("positive") {
		updates[k] = v
	}
	return s.update(&models.Post{}, postID, updates)
}

// RemoveBook withdraws a bookmark given at interactedAt.
func (s *InteractionService) RemoveBook(postID string, interactedAt time.Time) error {
	age := time.Since(interactedAt)
	updates := decrementGated("books", age)
	for k, v := range decrementGated("positive", age) {
		updates[k] = v
	}
	return s.update(&models.Post{}, postID, updates)
}

// AddView records a view on a channel.
func (s *InteractionService) AddView(channelID string) error {
	return s.update(&models.Channel{}, channelID, incrementAll("views"))
}

// update applies the column expressions to one entity row.
func (s *InteractionService) update(model any, id string, updates map[string]any) error {
	res := s.db.Model(model).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return apperrors.ParseDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrResourceNotFound
	}
	return nil
}

// incrementAll bumps every window tier of one metric.
func incrementAll(prefix string) map[string]any {
	updates := make(map[string]any, 5)
	for _, suffix := range []string{"_day", "_week", "_month", "_year", "_all_time"} {
		col := prefix + suffix
		updates[col] = gorm.Expr(col + " + 1")
	}
	return updates
}

// decrementGated lowers only the windows the interaction is still inside,
// never below zero. The all-time total always drops: an undone interaction
// never happened.
func decrementGated(prefix string, age time.Duration) map[string]any {
	updates := make(map[string]any, 5)
	for _, gate := range removalGates {
		if age < gate.within {
			col := prefix + gate.suffix
			updates[col] = gorm.Expr("CASE WHEN " + col + " > 0 THEN " + col + " - 1 ELSE 0 END")
		}
	}
	col := prefix + "_all_time"
	updates[col] = gorm.Expr("CASE WHEN " + col + " > 0 THEN " + col + " - 1 ELSE 0 END")
	return updates
}
