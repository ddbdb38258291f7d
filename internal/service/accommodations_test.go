package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "homerent/internal/errors"
	"homerent/internal/models"
)

func accommodationReq(rate string, availability int) *models.AccommodationRequest {
	return &models.AccommodationRequest{
		Type:         "apartment",
		Size:         "2 rooms",
		Address:      models.AddressRequest{Street: "Rua Augusta 10", City: "Lisbon", Country: "Portugal"},
		Amenities:    []string{"wifi", "parking"},
		DailyRate:    decimal.RequireFromString(rate),
		Availability: &availability,
	}
}

func TestCreateAccommodation(t *testing.T) {
	store := newMemStore()
	index := &fakeIndex{}
	notifier := &recordingNotifier{}
	svc := NewAccommodationService(accommodationStore{store}, index, notifier)

	a, err := svc.Create(context.Background(), admin, accommodationReq("75.5", 3))
	require.NoError(t, err)
	assert.Equal(t, models.AccommodationApartment, a.Type)
	assert.Equal(t, []int64{a.ID}, index.indexed)
	assert.Equal(t, 1, notifier.count(models.EventAccommodationCreated))

	_, err = svc.Create(context.Background(), customer, accommodationReq("75.5", 3))
	assert.True(t, errs.IsAccessDenied(err))

	_, err = svc.Create(context.Background(), admin, accommodationReq("0", 3))
	assert.True(t, errs.IsValidation(err))

	_, err = svc.Create(context.Background(), admin, accommodationReq("10", -1))
	assert.True(t, errs.IsValidation(err))
}

func TestCreateAccommodationIndexFailureIsNotFatal(t *testing.T) {
	store := newMemStore()
	svc := NewAccommodationService(accommodationStore{store}, &fakeIndex{err: errors.New("es down")}, &recordingNotifier{})

	_, err := svc.Create(context.Background(), admin, accommodationReq("75.5", 3))
	assert.NoError(t, err)
}

func TestUpdateAndDeleteAccommodation(t *testing.T) {
	store := newMemStore()
	index := &fakeIndex{}
	svc := NewAccommodationService(accommodationStore{store}, index, &recordingNotifier{})
	a := store.addAccommodation(1, 90)

	updated, err := svc.Update(context.Background(), admin, a.ID, accommodationReq("120", 4))
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Availability)

	_, err = svc.Update(context.Background(), admin, 999, accommodationReq("120", 4))
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, svc.Delete(context.Background(), admin, a.ID))
	assert.Equal(t, []int64{a.ID}, index.deleted)

	_, err = svc.Get(context.Background(), a.ID)
	assert.True(t, errs.IsNotFound(err))
	assert.True(t, errs.IsNotFound(svc.Delete(context.Background(), admin, a.ID)))
}

func TestSearchUsesIndex(t *testing.T) {
	store := newMemStore()
	first := store.addAccommodation(1, 90)
	second := store.addAccommodation(1, 90)
	svc := NewAccommodationService(accommodationStore{store}, &fakeIndex{ids: []int64{second.ID, first.ID}}, &recordingNotifier{})

	got, err := svc.Search(context.Background(), models.AccommodationSearchQuery{Text: "lisbon"}, models.Page{Size: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
}

func TestSearchFallsBackToStore(t *testing.T) {
	store := newMemStore()
	lisbon := store.addAccommodation(1, 90)
	porto := store.addAccommodation(1, 90)
	store.accommodations[porto.ID].Address.City = "Porto"
	svc := NewAccommodationService(accommodationStore{store}, nil, &recordingNotifier{})

	got, err := svc.Search(context.Background(), models.AccommodationSearchQuery{City: "lisbon", Amenity: "WIFI"}, models.Page{Size: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, lisbon.ID, got[0].ID)

	got, err = svc.Search(context.Background(), models.AccommodationSearchQuery{Text: "main st"}, models.Page{Number: 1, Size: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, porto.ID, got[0].ID)

	got, err = svc.Search(context.Background(), models.AccommodationSearchQuery{Type: "HOUSE"}, models.Page{Size: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUserService(t *testing.T) {
	store := newMemStore()
	store.users[customer.UserID] = &models.User{ID: customer.UserID, Email: "guest@example.com", Role: models.RoleCustomer}
	svc := NewUserService(userStore{store})

	me, err := svc.Me(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", me.Email)

	_, err = svc.UpdateRole(context.Background(), customer, customer.UserID, models.RoleAdmin)
	assert.True(t, errs.IsAccessDenied(err))

	promoted, err := svc.UpdateRole(context.Background(), admin, customer.UserID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = svc.UpdateRole(context.Background(), admin, 777, models.RoleAdmin)
	assert.True(t, errs.IsNotFound(err))

	_, err = svc.Me(context.Background(), stranger)
	assert.True(t, errs.IsNotFound(err))
}

func TestUpdateMe(t *testing.T) {
	store := newMemStore()
	store.users[customer.UserID] = &models.User{ID: customer.UserID, Email: "guest@example.com", FirstName: "G", LastName: "H", Role: models.RoleCustomer}
	store.users[stranger.UserID] = &models.User{ID: stranger.UserID, Email: "taken@example.com", Role: models.RoleCustomer}
	svc := NewUserService(userStore{store})

	updated, err := svc.UpdateMe(context.Background(), customer, &models.UpdateProfileRequest{
		Email: " ann@example.com ", FirstName: "Ann", LastName: "Lee",
	})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", updated.Email)
	assert.Equal(t, models.RoleCustomer, updated.Role)

	me, err := svc.Me(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, "Ann", me.FirstName)
	assert.Equal(t, "Lee", me.LastName)

	_, err = svc.UpdateMe(context.Background(), customer, &models.UpdateProfileRequest{
		Email: "taken@example.com", FirstName: "Ann", LastName: "Lee",
	})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "ann@example.com", store.users[customer.UserID].Email)

	_, err = svc.UpdateMe(context.Background(), customer, &models.UpdateProfileRequest{
		Email: "ann@example.com", FirstName: "  ", LastName: "Lee",
	})
	assert.True(t, errs.IsValidation(err))

	_, err = svc.UpdateMe(context.Background(), models.Identity{UserID: 999, Role: models.RoleCustomer}, &models.UpdateProfileRequest{
		Email: "x@example.com", FirstName: "X", LastName: "Y",
	})
	assert.True(t, errs.IsNotFound(err))
}
