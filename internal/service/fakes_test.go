package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"homerent/internal/external"
	"homerent/internal/models"
	"homerent/internal/repository"
)

// memStore is an in-memory stand-in for the Postgres repositories
type memStore struct {
	mu             sync.Mutex
	accommodations map[int64]*models.Accommodation
	bookings       map[int64]*models.Booking
	payments       map[int64]*models.Payment
	users          map[int64]*models.User
	nextID         int64
}

func newMemStore() *memStore {
	return &memStore{
		accommodations: map[int64]*models.Accommodation{},
		bookings:       map[int64]*models.Booking{},
		payments:       map[int64]*models.Payment{},
		users:          map[int64]*models.User{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addAccommodation(availability int, rate int64) *models.Accommodation {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &models.Accommodation{
		ID:           m.id(),
		Type:         models.AccommodationApartment,
		Size:         "2 rooms",
		Address:      models.Address{Street: "Main st 1", City: "Lisbon", Country: "Portugal"},
		Amenities:    []string{"wifi"},
		DailyRate:    decimal.NewFromInt(rate),
		Availability: availability,
	}
	m.accommodations[a.ID] = a
	return a
}

func (m *memStore) addBooking(accommodationID, userID int64, checkin, checkout string, status models.BookingStatus) *models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &models.Booking{
		ID:              m.id(),
		AccommodationID: accommodationID,
		UserID:          userID,
		CheckinDate:     mustDate(checkin),
		CheckoutDate:    mustDate(checkout),
		Status:          status,
	}
	m.bookings[b.ID] = b
	return b
}

func (m *memStore) addPayment(bookingID int64, sessionID string, status models.PaymentStatus, amount int64) *models.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Payment{
		ID:         m.id(),
		BookingID:  bookingID,
		Status:     status,
		SessionID:  sessionID,
		SessionURL: "https://checkout.example.com/" + sessionID,
		Amount:     decimal.NewFromInt(amount),
	}
	m.payments[p.ID] = p
	return p
}

func (m *memStore) booking(id int64) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.bookings[id]
}

func (m *memStore) payment(id int64) models.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.payments[id]
}

func mustDate(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

type accommodationStore struct{ *memStore }

func (s accommodationStore) Create(_ context.Context, a *models.Accommodation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	cp := *a
	s.accommodations[a.ID] = &cp
	return nil
}

func (s accommodationStore) GetByID(_ context.Context, id int64) (*models.Accommodation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accommodations[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s accommodationStore) GetByIDs(_ context.Context, ids []int64) ([]models.Accommodation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Accommodation
	for _, id := range ids {
		if a, ok := s.accommodations[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s accommodationStore) List(_ context.Context, page models.Page) ([]models.Accommodation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.accommodations))
	for id := range s.accommodations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []models.Accommodation
	for i, id := range ids {
		if i >= page.Offset() && len(out) < page.Size {
			out = append(out, *s.accommodations[id])
		}
	}
	return out, nil
}

func (s accommodationStore) Update(_ context.Context, a *models.Accommodation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accommodations[a.ID]; !ok {
		return false, nil
	}
	cp := *a
	s.accommodations[a.ID] = &cp
	return true, nil
}

func (s accommodationStore) SoftDelete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accommodations[id]; !ok {
		return false, nil
	}
	delete(s.accommodations, id)
	return true, nil
}

type bookingStore struct{ *memStore }

func (s bookingStore) countOverlapping(accommodationID int64, checkin, checkout time.Time) int {
	n := 0
	for _, b := range s.bookings {
		if b.AccommodationID != accommodationID || b.Status.Terminal() {
			continue
		}
		if !b.CheckinDate.After(checkout) && !b.CheckoutDate.Before(checkin) {
			n++
		}
	}
	return n
}

func (s bookingStore) CountOverlapping(_ context.Context, accommodationID int64, checkin, checkout time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countOverlapping(accommodationID, checkin, checkout), nil
}

func (s bookingStore) CreateIfAvailable(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accommodations[booking.AccommodationID]
	if !ok {
		return repository.ErrAccommodationNotFound
	}
	if a.Availability-1 < s.countOverlapping(booking.AccommodationID, booking.CheckinDate, booking.CheckoutDate) {
		return repository.ErrNoCapacity
	}
	booking.ID = s.id()
	cp := *booking
	s.bookings[booking.ID] = &cp
	return nil
}

func (s bookingStore) GetByID(_ context.Context, id int64) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s bookingStore) GetWithAccommodation(_ context.Context, id int64) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	if a, ok := s.accommodations[b.AccommodationID]; ok {
		acc := *a
		cp.Accommodation = &acc
	}
	return &cp, nil
}

func (s bookingStore) ListByUser(_ context.Context, userID int64, statuses []models.BookingStatus, _ models.Page) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.UserID != userID {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, b.Status) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func containsStatus(list []models.BookingStatus, s models.BookingStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (s bookingStore) FindPendingBefore(_ context.Context, before time.Time) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.Status == models.BookingPending && b.CheckinDate.Before(before) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s bookingStore) Update(_ context.Context, booking *models.Booking, expected models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.bookings[booking.ID]; !ok || current.Status != expected {
		return repository.ErrStatusChanged
	}
	cp := *booking
	cp.Accommodation = nil
	s.bookings[booking.ID] = &cp
	return nil
}

func (s bookingStore) TransitionStatuses(_ context.Context, ids []int64, from, to models.BookingStatus) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated []int64
	for _, id := range ids {
		if b, ok := s.bookings[id]; ok && b.Status == from {
			b.Status = to
			updated = append(updated, id)
		}
	}
	return updated, nil
}

// interleavedStore runs between right after the first read, the way a concurrent writer would
type interleavedStore struct {
	BookingStore
	between func()
	once    sync.Once
}

func (s *interleavedStore) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := s.BookingStore.GetByID(ctx, id)
	s.once.Do(s.between)
	return b, err
}

// racingBookings builds a second booking service over the fixture's store whose first read is
// followed by between
func (f *fixture) racingBookings(between func()) *BookingService {
	svc := NewBookingService(&interleavedStore{BookingStore: bookingStore{f.store}, between: between},
		paymentStore{memStore: f.store}, accommodationStore{f.store}, f.checkout, f.notifier)
	svc.now = f.bookings.now
	return svc
}

type paymentStore struct {
	*memStore
	findErr error
}

func (s paymentStore) Create(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.BookingID == payment.BookingID {
			return repository.ErrPaymentExists
		}
	}
	payment.ID = s.id()
	cp := *payment
	s.payments[payment.ID] = &cp
	return nil
}

func (s paymentStore) find(match func(*models.Payment) bool) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s paymentStore) GetByID(_ context.Context, id int64) (*models.Payment, error) {
	return s.find(func(p *models.Payment) bool { return p.ID == id })
}

func (s paymentStore) GetBySessionID(_ context.Context, sessionID string) (*models.Payment, error) {
	return s.find(func(p *models.Payment) bool { return p.SessionID == sessionID })
}

func (s paymentStore) GetByBookingID(_ context.Context, bookingID int64) (*models.Payment, error) {
	return s.find(func(p *models.Payment) bool { return p.BookingID == bookingID })
}

func (s paymentStore) HasPendingForUser(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		b, ok := s.bookings[p.BookingID]
		if ok && b.UserID == userID && p.Status == models.PaymentPending {
			return true, nil
		}
	}
	return false, nil
}

func (s paymentStore) ListByUser(_ context.Context, userID int64, _ models.Page) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Payment
	for _, p := range s.payments {
		if b, ok := s.bookings[p.BookingID]; ok && b.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s paymentStore) FindByStatus(_ context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Payment
	for _, p := range s.payments {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s paymentStore) Update(_ context.Context, payment *models.Payment, expected models.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.payments[payment.ID]; !ok || current.Status != expected {
		return repository.ErrStatusChanged
	}
	cp := *payment
	s.payments[payment.ID] = &cp
	return nil
}

func (s paymentStore) TransitionStatuses(_ context.Context, ids []int64, from, to models.PaymentStatus) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated []int64
	for _, id := range ids {
		if p, ok := s.payments[id]; ok && p.Status == from {
			p.Status = to
			updated = append(updated, id)
		}
	}
	return updated, nil
}

type userStore struct{ *memStore }

func (s userStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s userStore) UpdateRole(_ context.Context, id int64, role models.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	u.Role = role
	return true, nil
}

func (s userStore) UpdateProfile(_ context.Context, user *models.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID != user.ID && u.Email == user.Email {
			return false, repository.ErrEmailTaken
		}
	}
	u, ok := s.users[user.ID]
	if !ok {
		return false, nil
	}
	u.Email, u.FirstName, u.LastName = user.Email, user.FirstName, user.LastName
	return true, nil
}

// fakeCheckout emulates the hosted checkout provider
type fakeCheckout struct {
	mu        sync.Mutex
	seq       int
	sessions  map[string]external.SessionStatus
	failing   map[string]bool
	createErr error
	created   []decimal.Decimal
	expired   []string
}

func newFakeCheckout() *fakeCheckout {
	return &fakeCheckout{
		sessions: map[string]external.SessionStatus{},
		failing:  map[string]bool{},
	}
}

func (c *fakeCheckout) CreateSession(_ context.Context, amount decimal.Decimal, _ string) (*external.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.seq++
	id := fmt.Sprintf("cs_test_%d", c.seq)
	c.sessions[id] = external.SessionOpen
	c.created = append(c.created, amount)
	return &external.Session{ID: id, URL: "https://checkout.example.com/" + id, Status: external.SessionOpen}, nil
}

func (c *fakeCheckout) RetrieveSession(_ context.Context, sessionID string) (*external.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing[sessionID] {
		return nil, fmt.Errorf("stripe: connection reset")
	}
	status, ok := c.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("stripe: no such checkout session %s", sessionID)
	}
	return &external.Session{ID: sessionID, URL: "https://checkout.example.com/" + sessionID, Status: status}, nil
}

// ExpireSession behaves like the provider: only open sessions can be expired
func (c *fakeCheckout) ExpireSession(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing[sessionID] {
		return fmt.Errorf("stripe: connection reset")
	}
	if c.sessions[sessionID] != external.SessionOpen {
		return fmt.Errorf("stripe: session %s is not open", sessionID)
	}
	c.sessions[sessionID] = external.SessionExpired
	c.expired = append(c.expired, sessionID)
	return nil
}

func (c *fakeCheckout) status(sessionID string) external.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[sessionID]
}

func (c *fakeCheckout) set(sessionID string, status external.SessionStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[sessionID] = status
}

type sentEvent struct {
	subject string
	payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{subject: event, payload: payload})
}

func (n *recordingNotifier) count(subject string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.subject == subject {
			c++
		}
	}
	return c
}

type fakeIndex struct {
	ids     []int64
	indexed []int64
	deleted []int64
	err     error
}

func (f *fakeIndex) Index(_ context.Context, a *models.Accommodation) error {
	f.indexed = append(f.indexed, a.ID)
	return f.err
}

func (f *fakeIndex) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, _ models.AccommodationSearchQuery, _ models.Page) ([]int64, error) {
	return f.ids, f.err
}

// fixture wires services over the in-memory store with a fixed clock
type fixture struct {
	store    *memStore
	checkout *fakeCheckout
	notifier *recordingNotifier
	bookings *BookingService
	payments *PaymentService
}

var fixedNow = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	store := newMemStore()
	checkout := newFakeCheckout()
	notifier := &recordingNotifier{}

	bookings := NewBookingService(bookingStore{store}, paymentStore{memStore: store}, accommodationStore{store}, checkout, notifier)
	bookings.now = func() time.Time { return fixedNow }
	payments := NewPaymentService(paymentStore{memStore: store}, bookings, checkout, notifier, "usd")
	payments.now = func() time.Time { return fixedNow }

	return &fixture{
		store:    store,
		checkout: checkout,
		notifier: notifier,
		bookings: bookings,
		payments: payments,
	}
}

var (
	customer = models.Identity{UserID: 100, Role: models.RoleCustomer}
	stranger = models.Identity{UserID: 200, Role: models.RoleCustomer}
	admin    = models.Identity{UserID: 1, Role: models.RoleAdmin}
)
