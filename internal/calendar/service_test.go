package calendar_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familieapp/familieapp/internal/calendar"
	"github.com/familieapp/familieapp/internal/store"
)

func newService(repo store.Repository) *calendar.Service {
	loc, _ := time.LoadLocation("Europe/Oslo")
	return calendar.NewService(repo, loc, zerolog.Nop())
}

func TestList_DecoratesWithOwnerColors(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepository(&store.Document{
		Events: []store.Event{
			{ID: "e1", Title: "Fotball", Start: "2026-10-20T17:00:00Z", OwnerID: "fia"},
			{ID: "e2", Title: "Besøk", Start: "2026-10-21T12:00:00Z", OwnerID: "bestemor"},
		},
	})

	events, err := newService(repo).List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Fotball", events[0].Title)
	assert.Equal(t, "#a3e635", events[0].BackgroundColor)
	assert.Equal(t, "#a3e635", events[0].BorderColor)
	assert.Equal(t, "#132000", events[0].TextColor)

	assert.Equal(t, calendar.FallbackColor, events[1].BackgroundColor)
	assert.Equal(t, calendar.FallbackTextColor, events[1].TextColor)
}

func TestCreate_Success(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepository(nil)
	svc := newService(repo)

	created, events, err := svc.Create(ctx, calendar.CreateInput{
		Title:       "  Tannlege  ",
		Description: "  Husk kort ",
		Start:       "2026-10-20T09:00:00Z",
		End:         "2026-10-20T10:00:00Z",
		OwnerID:     "hugo",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Tannlege", created.Title)
	assert.Equal(t, "Husk kort", created.Description)
	assert.Equal(t, "#818cf8", created.BackgroundColor)
	require.Len(t, events, 1)
	assert.Equal(t, created.ID, events[0].ID)

	doc, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Events, 1)
	assert.Equal(t, created.Event, doc.Events[0])
}

func TestCreate_AssignsDistinctIDs(t *testing.T) {
	ctx := context.Background()
	svc := newService(store.NewInMemoryRepository(nil))

	in := calendar.CreateInput{Title: "Middag", Start: "2026-10-20T16:00:00Z", OwnerID: "rino"}
	first, _, err := svc.Create(ctx, in)
	require.NoError(t, err)
	second, events, err := svc.Create(ctx, in)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, events, 2)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		input  calendar.CreateInput
		fields []string
	}{
		{
			name:   "blank title",
			input:  calendar.CreateInput{Title: "   ", Start: "2026-10-20T09:00:00Z", OwnerID: "rino"},
			fields: []string{"title"},
		},
		{
			name:   "missing start",
			input:  calendar.CreateInput{Title: "x", OwnerID: "rino"},
			fields: []string{"start"},
		},
		{
			name:   "missing owner",
			input:  calendar.CreateInput{Title: "x", Start: "2026-10-20T09:00:00Z"},
			fields: []string{"ownerId"},
		},
		{
			name:   "unknown owner",
			input:  calendar.CreateInput{Title: "x", Start: "2026-10-20T09:00:00Z", OwnerID: "bestemor"},
			fields: []string{"ownerId"},
		},
		{
			name:   "end before start",
			input:  calendar.CreateInput{Title: "x", Start: "2026-10-20T09:00:00Z", End: "2026-10-20T08:00:00Z", OwnerID: "rino"},
			fields: []string{"end"},
		},
		{
			name:   "end equal to start",
			input:  calendar.CreateInput{Title: "x", Start: "2026-10-20T09:00:00Z", End: "2026-10-20T09:00:00Z", OwnerID: "rino"},
			fields: []string{"end"},
		},
		{
			name:   "everything wrong",
			input:  calendar.CreateInput{},
			fields: []string{"title", "start", "ownerId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := store.NewInMemoryRepository(nil)

			created, events, err := newService(repo).Create(ctx, tt.input)
			require.Error(t, err)
			assert.Nil(t, created)
			assert.Nil(t, events)

			var verr *calendar.ValidationError
			require.True(t, errors.As(err, &verr))
			var fields []string
			for _, fe := range verr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.fields, fields)

			doc, err := repo.Get(ctx)
			require.NoError(t, err)
			assert.Empty(t, doc.Events)
		})
	}
}

func TestCreate_UnparseableEndIsAccepted(t *testing.T) {
	svc := newService(store.NewInMemoryRepository(nil))

	_, _, err := svc.Create(context.Background(), calendar.CreateInput{
		Title: "x", Start: "2026-10-20T09:00:00Z", End: "senere", OwnerID: "rino",
	})
	assert.NoError(t, err)
}

func TestDelete_RemovesEventAndPurgesReminderKeys(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepository(&store.Document{
		Events: []store.Event{
			{ID: "e1", Title: "a", Start: "2026-10-20T09:00:00Z", OwnerID: "rino"},
			{ID: "e10", Title: "b", Start: "2026-10-20T09:00:00Z", OwnerID: "rino"},
		},
		SentReminders: []string{"e1:https://a:1", "e10:https://a:1", "e1:https://b:2"},
	})

	events, err := newService(repo).Delete(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e10", events[0].ID)

	doc, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e10:https://a:1"}, doc.SentReminders)
}

func TestDelete_MissingIDIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepository(&store.Document{
		Events: []store.Event{{ID: "e1", Title: "a", Start: "2026-10-20T09:00:00Z", OwnerID: "rino"}},
	})

	events, err := newService(repo).Delete(ctx, "missing")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepository(&store.Document{
		Events: []store.Event{
			{ID: "e1", Title: "Tannlege", Description: "Ta med kort", Start: "2026-10-20T09:00:00Z", End: "2026-10-20T10:00:00Z", OwnerID: "hugo"},
			{ID: "e2", Title: "Høstferie", Start: "2026-10-19", AllDay: true, OwnerID: "fia"},
			{ID: "e3", Title: "Uten tid", Start: "en gang", OwnerID: "rino"},
		},
	})

	data, err := newService(repo).Export(ctx)
	require.NoError(t, err)
	feed := string(data)

	assert.Contains(t, feed, "BEGIN:VCALENDAR")
	assert.Contains(t, feed, "METHOD:PUBLISH")
	assert.Contains(t, feed, "PRODID:"+calendar.ProductID)
	assert.Equal(t, 2, strings.Count(feed, "BEGIN:VEVENT"))

	assert.Contains(t, feed, "UID:e1@familieapp")
	assert.Contains(t, feed, "SUMMARY:Tannlege")
	assert.Contains(t, feed, "DESCRIPTION:Ta med kort")
	assert.Contains(t, feed, "CATEGORIES:Hugo")
	assert.Contains(t, feed, "DTSTART:20261020T090000Z")
	assert.Contains(t, feed, "DTEND:20261020T100000Z")

	assert.Contains(t, feed, "UID:e2@familieapp")
	assert.Contains(t, feed, "CATEGORIES:Fia")
	assert.Contains(t, feed, "20261019")
	assert.Contains(t, feed, "20261020")

	assert.NotContains(t, feed, "e3@familieapp")
}

func TestExport_Empty(t *testing.T) {
	data, err := newService(store.NewInMemoryRepository(nil)).Export(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")
	assert.NotContains(t, string(data), "BEGIN:VEVENT")
}
