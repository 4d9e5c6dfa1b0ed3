// ABOUTME: In-memory Provider for tests with a call log
// ABOUTME: Lets tests stub records and assert which operations were invoked

package capability

import (
	"context"
	"strings"
	"sync"
)

// MockProvider is an in-memory Provider. Zero-value maps behave as "not found".
type MockProvider struct {
	mu sync.Mutex

	Users         map[string]User         // keyed by email
	Subscriptions map[string]Subscription // keyed by user id
	Reservations  map[string][]Reservation
	Articles      []Article
	Policy        RetentionPolicy

	// Err, when set, is returned by every operation.
	Err error
	// PanicOn names an operation that panics, for exercising recovery.
	PanicOn string

	calls []string
}

// NewMockProvider returns an empty provider serving DefaultRetentionPolicy.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Users:         make(map[string]User),
		Subscriptions: make(map[string]Subscription),
		Reservations:  make(map[string][]Reservation),
		Policy:        DefaultRetentionPolicy,
	}
}

func (m *MockProvider) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
	if m.PanicOn == op {
		panic("mock provider: " + op)
	}
	return m.Err
}

// Calls returns the operations invoked so far, in order.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Called reports whether op was invoked at least once.
func (m *MockProvider) Called(op string) bool {
	for _, c := range m.Calls() {
		if c == op {
			return true
		}
	}
	return false
}

// LookupUser implements Provider.
func (m *MockProvider) LookupUser(ctx context.Context, email string) (*User, error) {
	if err := m.record(ToolLookupUser); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[strings.ToLower(email)]
	if !ok {
		return nil, Fail(CodeUserNotFound, "User not found")
	}
	return &u, nil
}

// SubscriptionStatus implements Provider.
func (m *MockProvider) SubscriptionStatus(ctx context.Context, userID string) (*Subscription, error) {
	if err := m.record(ToolSubscriptionStatus); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Subscriptions[userID]
	if !ok {
		return nil, Fail(CodeSubscriptionNotFound, "No subscription found")
	}
	return &s, nil
}

// UpdateSubscription implements Provider.
func (m *MockProvider) UpdateSubscription(ctx context.Context, userID, tier string) (*TierChange, error) {
	if err := m.record(ToolUpdateSubscription); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Subscriptions[userID]
	if !ok {
		return nil, Fail(CodeSubscriptionNotFound, "Subscription not found")
	}
	old := s.Tier
	s.Tier, s.MonthlyQuota = tier, QuotaForTier(tier)
	m.Subscriptions[userID] = s
	return &TierChange{Status: "success", OldTier: old, NewTier: tier, MonthlyQuota: s.MonthlyQuota}, nil
}

// ListReservations implements Provider.
func (m *MockProvider) ListReservations(ctx context.Context, userID string) ([]Reservation, error) {
	if err := m.record(ToolListReservations); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Reservation{}, m.Reservations[userID]...), nil
}

// BookReservation implements Provider.
func (m *MockProvider) BookReservation(ctx context.Context, userID, experienceID string) (*Booking, error) {
	if err := m.record(ToolBookReservation); err != nil {
		return nil, err
	}
	return &Booking{Status: "success", ReservationID: NewReservationID(), Message: "Successfully booked " + experienceID + "."}, nil
}

// CancelReservation implements Provider.
func (m *MockProvider) CancelReservation(ctx context.Context, reservationID string) (*Cancellation, error) {
	if err := m.record(ToolCancelReservation); err != nil {
		return nil, err
	}
	return &Cancellation{Status: "success", Message: "Reservation " + reservationID + " cancelled."}, nil
}

// RetentionPolicy implements Provider.
func (m *MockProvider) RetentionPolicy(ctx context.Context) (*RetentionPolicy, error) {
	if err := m.record(ToolRetentionPolicy); err != nil {
		return nil, err
	}
	p := m.Policy
	return &p, nil
}

// SearchKnowledge implements Provider.
func (m *MockProvider) SearchKnowledge(ctx context.Context, query string) ([]Article, error) {
	if err := m.record(ToolSearchKnowledge); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	var out []Article
	for _, a := range m.Articles {
		if strings.Contains(strings.ToLower(a.Title+" "+a.Content+" "+a.Tags), q) {
			out = append(out, a)
			if len(out) == SearchLimit {
				break
			}
		}
	}
	return out, nil
}

var _ Provider = (*MockProvider)(nil)
