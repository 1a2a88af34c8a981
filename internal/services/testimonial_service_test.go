package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/cache"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/database/testutil"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/models"
	apperrors "github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/errors"
)

func newTestimonialFixture(t *testing.T) (*TestimonialService, *cache.Cache) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	appCache, err := cache.New(cache.NewMemoryDriver(), cache.Config{
		Enabled: true,
		Prefix:  "test",
		Rand:    func() float64 { return 1 }, // never sweep
	})
	require.NoError(t, err)

	svc, err := NewTestimonialService(db, appCache)
	require.NoError(t, err)

	return svc, appCache
}

func TestSubmitStartsPending(t *testing.T) {
	svc, _ := newTestimonialFixture(t)
	ctx := context.Background()

	testimonial, err := svc.Submit(ctx, SubmitTestimonialInput{
		Author: "Ada",
		Quote:  "Great work on the launch.",
		Rating: 9, // out of range, falls back
	})
	require.NoError(t, err)
	require.Equal(t, models.TestimonialPending, testimonial.Status)
	require.Equal(t, 5, testimonial.Rating)
	require.NotEmpty(t, testimonial.ID)

	approved, err := svc.ListApproved(ctx)
	require.NoError(t, err)
	require.Empty(t, approved, "pending testimonials are not public")
}

func TestSubmitRejectsEmptyFields(t *testing.T) {
	svc, _ := newTestimonialFixture(t)

	_, err := svc.Submit(context.Background(), SubmitTestimonialInput{Author: " ", Quote: "x"})
	require.Error(t, err)

	_, err = svc.Submit(context.Background(), SubmitTestimonialInput{Author: "Ada", Quote: ""})
	require.Error(t, err)
}

func TestApprovePublishesAndInvalidatesCache(t *testing.T) {
	svc, appCache := newTestimonialFixture(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, SubmitTestimonialInput{Author: "Ada", Quote: "First"})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, first.ID)
	require.NoError(t, err)

	approved, err := svc.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)

	// The approved list is cached now; approving another entry must clear it.
	second, err := svc.Submit(ctx, SubmitTestimonialInput{Author: "Grace", Quote: "Second"})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, second.ID)
	require.NoError(t, err)

	approved, err = svc.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 2)

	snapshot := appCache.Stats().Snapshot()
	require.NotZero(t, snapshot.Evictions, "writes must clear the cached list")
}

func TestListApprovedServesFromCache(t *testing.T) {
	svc, appCache := newTestimonialFixture(t)
	ctx := context.Background()

	testimonial, err := svc.Submit(ctx, SubmitTestimonialInput{Author: "Ada", Quote: "Hi"})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, testimonial.ID)
	require.NoError(t, err)

	_, err = svc.ListApproved(ctx)
	require.NoError(t, err)
	_, err = svc.ListApproved(ctx)
	require.NoError(t, err)

	snapshot := appCache.Stats().Snapshot()
	require.EqualValues(t, 1, snapshot.Hits)
}

func TestUpdateValidatesFields(t *testing.T) {
	svc, _ := newTestimonialFixture(t)
	ctx := context.Background()

	testimonial, err := svc.Submit(ctx, SubmitTestimonialInput{Author: "Ada", Quote: "Hi"})
	require.NoError(t, err)

	company := "Initech"
	rating := 4
	updated, err := svc.Update(ctx, testimonial.ID, UpdateTestimonialInput{
		Company: &company,
		Rating:  &rating,
	})
	require.NoError(t, err)
	require.Equal(t, "Initech", updated.Company)
	require.Equal(t, 4, updated.Rating)

	badRating := 0
	_, err = svc.Update(ctx, testimonial.ID, UpdateTestimonialInput{Rating: &badRating})
	require.Error(t, err)

	badStatus := "published"
	_, err = svc.Update(ctx, testimonial.ID, UpdateTestimonialInput{Status: &badStatus})
	require.Error(t, err)
}

func TestDeleteAndGetUnknownID(t *testing.T) {
	svc, _ := newTestimonialFixture(t)
	ctx := context.Background()

	testimonial, err := svc.Submit(ctx, SubmitTestimonialInput{Author: "Ada", Quote: "Hi"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, testimonial.ID))
	require.ErrorIs(t, svc.Delete(ctx, testimonial.ID), apperrors.ErrNotFound)

	_, err = svc.Get(ctx, testimonial.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	svc, _ := newTestimonialFixture(t)
	ctx := context.Background()

	pending, err := svc.Submit(ctx, SubmitTestimonialInput{Author: "Ada", Quote: "One"})
	require.NoError(t, err)
	approved, err := svc.Submit(ctx, SubmitTestimonialInput{Author: "Grace", Quote: "Two"})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, approved.ID)
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	onlyPending, err := svc.List(ctx, models.TestimonialPending)
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	require.Equal(t, pending.ID, onlyPending[0].ID)
}
