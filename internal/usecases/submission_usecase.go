package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"waitlist_funnel/internal/entities"
	"waitlist_funnel/internal/interfaces"
	"waitlist_funnel/internal/repository"

	"github.com/rs/zerolog/log"
)

// FeedbackDismissDelay is how long the form's outcome screen stays up.
const FeedbackDismissDelay = 5 * time.Second

// ErrEmailRequired is returned for a submission without an email.
var ErrEmailRequired = errors.New("email is required")

// SubmissionOutcome is what the visitor is told after submitting the form.
type SubmissionOutcome string

const (
	SubmissionJoined        SubmissionOutcome = "success"
	SubmissionAlreadyJoined SubmissionOutcome = "already-joined"
	SubmissionFailed        SubmissionOutcome = "error"
)

// SubmissionResult reports the outcome of one form submission.
type SubmissionResult struct {
	Outcome        SubmissionOutcome    `json:"state"`
	Subscriber     *entities.Subscriber `json:"subscriber,omitempty"`
	Retryable      bool                 `json:"retryable"`
	DismissAfterMS int64                `json:"dismiss_after_ms"`
}

// SubmissionForm is the public waitlist form.
type SubmissionForm struct {
	Name      string
	Email     string
	Interests *entities.Interests
}

type SubmissionUsecase struct {
	writer interfaces.SubscriberWriter
}

func NewSubmissionUsecase(writer interfaces.SubscriberWriter) *SubmissionUsecase {
	return &SubmissionUsecase{writer: writer}
}

// Normalize trims the name, trims and lower-cases the email and fills in
// the default interests.
func (f SubmissionForm) Normalize() entities.Subscriber {
	s := entities.Subscriber{
		Email:     strings.ToLower(strings.TrimSpace(f.Email)),
		Interests: entities.DefaultInterests(),
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		s.Name = &name
	}
	if f.Interests != nil {
		s.Interests = *f.Interests
	}
	return s
}

// Submit adds the visitor to the waitlist. A duplicate email is a normal
// outcome, not an error; only a blank email returns an error.
func (u *SubmissionUsecase) Submit(ctx context.Context, form SubmissionForm) (SubmissionResult, error) {
	sub := form.Normalize()
	if sub.Email == "" {
		return SubmissionResult{}, ErrEmailRequired
	}

	result := SubmissionResult{DismissAfterMS: FeedbackDismissDelay.Milliseconds()}
	err := u.writer.Insert(ctx, &sub)
	switch {
	case err == nil:
		result.Outcome = SubmissionJoined
		result.Subscriber = &sub
		log.Ctx(ctx).Info().Str("subscriber_id", sub.ID).Msg("waitlist joined")
	case errors.Is(err, repository.ErrDuplicateEmail):
		result.Outcome = SubmissionAlreadyJoined
	default:
		log.Ctx(ctx).Error().Err(err).Msg("waitlist insert failed")
		result.Outcome = SubmissionFailed
		result.Retryable = true
	}
	return result, nil
}
