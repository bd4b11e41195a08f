package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/funday-app/funday-server/internal/apperr"
	"github.com/funday-app/funday-server/internal/models"
)

func TestCreateEventValidatesWindow(t *testing.T) {
	db := initTestDB(t)
	svc := &EventService{DB: db}
	ctx := context.Background()

	start := time.Now().Add(24 * time.Hour)

	_, err := svc.Create(ctx, CreateEventInput{Title: "Backwards", StartAt: start, EndAt: start.Add(-time.Hour)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, CreateEventInput{Title: "", StartAt: start, EndAt: start.Add(time.Hour)})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateEventRollsBackOnMissingProduct(t *testing.T) {
	db := initTestDB(t)
	svc := &EventService{DB: db}
	ctx := context.Background()

	start := time.Now().Add(24 * time.Hour)
	_, err := svc.Create(ctx, CreateEventInput{
		Title:      "Launch party",
		StartAt:    start,
		EndAt:      start.Add(2 * time.Hour),
		ProductIDs: []uint{404},
	})
	require.True(t, apperr.IsBadRequest(err))

	var events, links int64
	require.NoError(t, db.Model(&models.Event{}).Count(&events).Error)
	require.NoError(t, db.Model(&models.EventProduct{}).Count(&links).Error)
	require.Zero(t, events)
	require.Zero(t, links)
}

func TestListEventsByWindow(t *testing.T) {
	db := initTestDB(t)
	svc := &EventService{DB: db}
	ctx := context.Background()

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	mk := func(title string, start, end time.Time) {
		_, err := svc.Create(ctx, CreateEventInput{Title: title, StartAt: start, EndAt: end})
		require.NoError(t, err)
	}
	mk("early", base, base.Add(48*time.Hour))
	mk("late", base.Add(30*24*time.Hour), base.Add(32*24*time.Hour))

	total, items, err := svc.List(ctx, EventFilter{From: base.Add(-time.Hour), To: base.Add(72 * time.Hour)}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "early", items[0].Title)

	total, _, err = svc.List(ctx, EventFilter{}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
}

func TestGetEventIncludesProducts(t *testing.T) {
	db := initTestDB(t)
	products := &ProductService{DB: db}
	svc := &EventService{DB: db}
	ctx := context.Background()

	p, err := products.Create(ctx, CreateProductInput{Title: "Tied product", Description: "x", Price: 10, HostID: 1})
	require.NoError(t, err)

	start := time.Now().Add(24 * time.Hour)
	created, err := svc.Create(ctx, CreateEventInput{
		Title:      "Fair",
		StartAt:    start,
		EndAt:      start.Add(time.Hour),
		ProductIDs: []uint{p.ID},
		Photos:     []PhotoInput{{URL: "https://cdn.example.com/e1.jpg"}},
	})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Products, 1)
	require.Equal(t, p.ID, got.Products[0].ID)
	require.Len(t, got.Photos, 1)
}
