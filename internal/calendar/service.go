package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/api/models"
	"github.com/familieapp/familieapp/internal/eventtime"
	"github.com/familieapp/familieapp/internal/reminder"
	"github.com/familieapp/familieapp/internal/store"
	"github.com/familieapp/familieapp/internal/user"
)

// Service provides calendar operations on the shared document.
type Service struct {
	repo     store.Repository
	location *time.Location
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService creates a calendar service. Zone-less event times are read in
// loc, which defaults to UTC.
func NewService(repo store.Repository, loc *time.Location, log zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		location: loc,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// List returns all events with display colors.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	doc, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return DecorateAll(doc.Events), nil
}

// Create validates input, stores a new event and returns it together with
// the updated list.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Event, []Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Start = strings.TrimSpace(in.Start)
	in.End = strings.TrimSpace(in.End)

	if errs := s.validate(in); len(errs) > 0 {
		return nil, nil, &ValidationError{Errors: errs}
	}

	ev := store.Event{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Start:       in.Start,
		End:         in.End,
		AllDay:      in.AllDay,
		OwnerID:     in.OwnerID,
	}

	doc, err := store.Update(ctx, s.repo, func(doc *store.Document) error {
		doc.Events = append(doc.Events, ev)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("save event: %w", err)
	}

	s.log.Info().
		Str("event_id", ev.ID).
		Str("owner_id", ev.OwnerID).
		Bool("all_day", ev.AllDay).
		Msg("event created")

	created := Decorate(ev)
	return &created, DecorateAll(doc.Events), nil
}

// Delete removes the event with id, if present, along with its reminder
// history, and returns the updated list.
func (s *Service) Delete(ctx context.Context, id string) ([]Event, error) {
	removed := false
	doc, err := store.Update(ctx, s.repo, func(doc *store.Document) error {
		kept := make([]store.Event, 0, len(doc.Events))
		for _, ev := range doc.Events {
			if ev.ID == id {
				removed = true
				continue
			}
			kept = append(kept, ev)
		}
		doc.Events = kept
		doc.SentReminders = reminder.PurgeEvent(doc.SentReminders, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete event: %w", err)
	}

	if removed {
		s.log.Info().Str("event_id", id).Msg("event deleted")
	}
	return DecorateAll(doc.Events), nil
}

func (s *Service) validate(in CreateInput) []models.FieldError {
	var errs []models.FieldError

	if in.Title == "" {
		errs = append(errs, models.FieldError{Field: "title", Message: "title is required", Code: "required"})
	}
	if in.Start == "" {
		errs = append(errs, models.FieldError{Field: "start", Message: "start is required", Code: "required"})
	}
	if in.OwnerID == "" {
		errs = append(errs, models.FieldError{Field: "ownerId", Message: "ownerId is required", Code: "required"})
	} else if !user.IsKnown(in.OwnerID) {
		errs = append(errs, models.FieldError{Field: "ownerId", Message: "ownerId must be a known user", Code: "unknown_user"})
	}

	if in.Start != "" && in.End != "" {
		start, okStart := eventtime.Parse(in.Start, s.location)
		end, okEnd := eventtime.Parse(in.End, s.location)
		if okStart && okEnd && !end.After(start) {
			errs = append(errs, models.FieldError{Field: "end", Message: "end must be after start", Code: "end_before_start"})
		}
	}

	return errs
}
