package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bentansusanto/travel-api/internal/domain"
)

func TestTouristService_AddOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	booking := f.bookingWithTourists(t, 0)

	tourist, err := f.tourists.AddOne(ctx, booking.ID, f.user.ID, domain.TouristFields{
		Name: " Ana Putri ", Gender: domain.GenderMs, Nationality: "Indonesia", PassportNo: " x1234567 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Putri", tourist.Name)
	assert.Equal(t, "X1234567", tourist.PassportNo)

	_, err = f.tourists.AddOne(ctx, booking.ID, f.user.ID, person("Other", "X1234567"))
	assert.ErrorIs(t, err, domain.ErrPassportAlreadyRegistered)
	assert.True(t, domain.IsConflictError(err))

	_, err = f.tourists.AddOne(ctx, booking.ID, "someone-else", person("Other", "Y1234567"))
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	_, err = f.tourists.AddOne(ctx, booking.ID, f.user.ID, domain.TouristFields{Name: "A", Gender: "Sir", Nationality: "ID", PassportNo: "Z1"})
	assert.ErrorIs(t, err, domain.ErrInvalidGender)
}

func TestTouristService_AddMany(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts the whole batch", func(t *testing.T) {
		f := newFixture(t)
		booking := f.bookingWithTourists(t, 0)

		tourists, err := f.tourists.AddMany(ctx, booking.ID, f.user.ID, []domain.TouristFields{
			person("Ana", "A1"), person("Budi", "B1"),
		})
		require.NoError(t, err)
		assert.Len(t, tourists, 2)

		stored, err := f.store.Tourists().ListByBooking(ctx, booking.ID)
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("duplicate passport inside the batch", func(t *testing.T) {
		f := newFixture(t)
		booking := f.bookingWithTourists(t, 0)

		_, err := f.tourists.AddMany(ctx, booking.ID, f.user.ID, []domain.TouristFields{
			person("Ana", "a1"), person("Budi", " A1"),
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateInBatch)
		assert.True(t, domain.IsValidationError(err))
	})

	t.Run("lists every passport already registered", func(t *testing.T) {
		f := newFixture(t)
		booking := f.bookingWithTourists(t, 0)
		_, err := f.tourists.AddMany(ctx, booking.ID, f.user.ID, []domain.TouristFields{person("Ana", "A1"), person("Budi", "B1")})
		require.NoError(t, err)

		_, err = f.tourists.AddMany(ctx, booking.ID, f.user.ID, []domain.TouristFields{
			person("Citra", "C1"), person("Ana", "A1"), person("Budi", "B1"),
		})
		var conflict *domain.PassportConflictError
		require.True(t, errors.As(err, &conflict))
		assert.ElementsMatch(t, []string{"A1", "B1"}, conflict.Passports)

		stored, err := f.store.Tourists().ListByBooking(ctx, booking.ID)
		require.NoError(t, err)
		assert.Len(t, stored, 2, "a rejected batch inserts nothing")
	})

	t.Run("empty batch", func(t *testing.T) {
		f := newFixture(t)
		booking := f.bookingWithTourists(t, 0)
		_, err := f.tourists.AddMany(ctx, booking.ID, f.user.ID, nil)
		assert.ErrorIs(t, err, domain.ErrEmptyBatch)
	})

	t.Run("paid booking is locked", func(t *testing.T) {
		f := newFixture(t)
		booking := f.bookingWithTourists(t, 1)
		_, err := f.bookings.SetStatus(ctx, booking.ID, domain.BookingStatusOngoing, domain.PaymentActor)
		require.NoError(t, err)

		_, err = f.tourists.AddMany(ctx, booking.ID, f.user.ID, []domain.TouristFields{person("Late", "L1")})
		assert.ErrorIs(t, err, domain.ErrBookingLocked)
	})
}

func TestTouristService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	booking := f.bookingWithTourists(t, 0)

	added, err := f.tourists.AddMany(ctx, booking.ID, f.user.ID, []domain.TouristFields{person("Ana", "A1"), person("Budi", "B1")})
	require.NoError(t, err)
	ana := added[0]

	updated, err := f.tourists.Update(ctx, ana.ID, domain.TouristFields{
		Name: "Ana Putri", Gender: domain.GenderMrs, Nationality: "Indonesia", PassportNo: "A1",
	}, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Putri", updated.Name)
	assert.Equal(t, domain.GenderMrs, updated.Gender)

	_, err = f.tourists.Update(ctx, ana.ID, person("Ana", "b1"), f.user.ID)
	assert.ErrorIs(t, err, domain.ErrPassportConflict)

	_, err = f.tourists.Update(ctx, ana.ID, person("Ana", "A2"), "someone-else")
	assert.ErrorIs(t, err, domain.ErrTouristNotFound)

	_, err = f.tourists.Update(ctx, "missing", person("Ana", "A2"), f.user.ID)
	assert.ErrorIs(t, err, domain.ErrTouristNotFound)
}

func TestTouristService_RemoveListGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	booking := f.bookingWithTourists(t, 2)

	list, err := f.tourists.List(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	got, err := f.tourists.Get(ctx, list[0].ID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.BookingID)

	_, err = f.tourists.Get(ctx, list[0].ID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrTouristNotFound)

	assert.ErrorIs(t, f.tourists.Remove(ctx, list[0].ID, "someone-else"), domain.ErrTouristNotFound)
	require.NoError(t, f.tourists.Remove(ctx, list[0].ID, f.user.ID))

	list, err = f.tourists.List(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
