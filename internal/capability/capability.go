// ABOUTME: Capability provider contract with typed requests and results
// ABOUTME: Covers user, subscription, reservation, retention, and knowledge operations

package capability

import "context"

// User is a member record.
type User struct {
	UserID    string `json:"user_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	IsBlocked bool   `json:"is_blocked"`
}

// Subscription describes a member's plan.
type Subscription struct {
	Status       string `json:"status"`
	Tier         string `json:"tier"`
	MonthlyQuota int    `json:"monthly_quota"`
	ExpiresAt    string `json:"expires_at"` // "Auto-renew" when open-ended
}

// TierChange is the result of a subscription tier update.
type TierChange struct {
	Status       string `json:"status"`
	OldTier      string `json:"old_tier"`
	NewTier      string `json:"new_tier"`
	MonthlyQuota int    `json:"monthly_quota"`
	Message      string `json:"message"`
}

// Reservation is one booking joined with its experience.
type Reservation struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
	Class         string `json:"class"`
	When          string `json:"when"`
}

// Booking is the result of a successful reservation.
type Booking struct {
	Status        string `json:"status"`
	ReservationID string `json:"reservation_id"`
	Message       string `json:"message"`
}

// Cancellation is the result of cancelling one reservation.
type Cancellation struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RetentionPolicy lists what a retention specialist may offer.
type RetentionPolicy struct {
	CancellationFee string `json:"cancellation_fee"`
	PauseOption     string `json:"pause_option"`
	RetentionOffer  string `json:"retention_offer"`
	RefundPolicy    string `json:"refund_policy"`
}

// Article is a knowledge base entry.
type Article struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tags    string `json:"tags"`
}

// Tier names accepted by UpdateSubscription.
const (
	TierBasic = "basic"
	TierElite = "elite"
)

// QuotaForTier returns the monthly class quota for a tier.
func QuotaForTier(tier string) int {
	if tier == TierElite {
		return 20
	}
	return 5
}

// SearchLimit caps the number of articles SearchKnowledge returns.
const SearchLimit = 3

// DefaultRetentionPolicy is the policy served when no override is configured.
var DefaultRetentionPolicy = RetentionPolicy{
	CancellationFee: "None if cancelled 24h before renewal.",
	PauseOption:     "Can pause for up to 3 months. Data is preserved.",
	RetentionOffer:  "10% discount for the next 3 months if they stay.",
	RefundPolicy:    "No refunds for partial months. Strictly no refunds for used passes.",
}

// Provider exposes the record-store operations specialists may call.
// Every method returns either a result or an error; domain failures are
// reported as *Failure so callers can switch on Code.
type Provider interface {
	LookupUser(ctx context.Context, email string) (*User, error)
	SubscriptionStatus(ctx context.Context, userID string) (*Subscription, error)
	UpdateSubscription(ctx context.Context, userID, tier string) (*TierChange, error)
	ListReservations(ctx context.Context, userID string) ([]Reservation, error)
	BookReservation(ctx context.Context, userID, experienceID string) (*Booking, error)
	CancelReservation(ctx context.Context, reservationID string) (*Cancellation, error)
	RetentionPolicy(ctx context.Context) (*RetentionPolicy, error)
	SearchKnowledge(ctx context.Context, query string) ([]Article, error)
}
