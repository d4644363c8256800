package calendar

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/familieapp/familieapp/internal/eventtime"
	"github.com/familieapp/familieapp/internal/store"
	"github.com/familieapp/familieapp/internal/user"
)

// ProductID identifies the feed producer.
const ProductID = "-//familieapp//kalender//NO"

// uidDomain qualifies event IDs into globally unique UIDs.
const uidDomain = "familieapp"

// Export renders all events as an iCalendar feed. Events whose start does
// not parse are left out.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	doc, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return s.render(doc.Events)
}

func (s *Service) render(events []store.Event) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName("Familiekalender")

	stamp := s.now().UTC()
	for _, ev := range events {
		start, ok := eventtime.Parse(ev.Start, s.location)
		if !ok {
			s.log.Debug().Str("event_id", ev.ID).Msg("skipping event with unparseable start")
			continue
		}

		e := cal.AddEvent(fmt.Sprintf("%s@%s", ev.ID, uidDomain))
		e.SetDtStampTime(stamp)
		e.SetSummary(ev.Title)
		if ev.Description != "" {
			e.SetDescription(ev.Description)
		}
		e.AddProperty(ics.ComponentPropertyCategories, user.DisplayName(ev.OwnerID, "familie"))

		end, hasEnd := eventtime.Parse(ev.End, s.location)
		if ev.AllDay || eventtime.IsDate(ev.Start) {
			e.SetAllDayStartAt(start)
			if !hasEnd || !end.After(start) {
				end = start.AddDate(0, 0, 1)
			}
			e.SetAllDayEndAt(end)
			continue
		}

		if !hasEnd || !end.After(start) {
			end = start.Add(time.Hour)
		}
		e.SetStartAt(start)
		e.SetEndAt(end)
	}

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize calendar: %w", err)
	}
	return buf.Bytes(), nil
}
