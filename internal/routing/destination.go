// ABOUTME: Destination enumeration and the RoutingDecision produced by a classifier
// ABOUTME: Sentiment and urgency are observability metadata and never affect dispatch

package routing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDestination is returned when a value is outside the destination set.
var ErrInvalidDestination = errors.New("invalid destination")

// Destination names the specialist a turn is routed to.
type Destination string

// Destination constants
const (
	Billing     Destination = "billing"
	Booking     Destination = "booking"
	TechSupport Destination = "tech_support"
	Retention   Destination = "retention"
)

// Destinations returns every destination a classifier may emit, in a stable order.
func Destinations() []Destination {
	return []Destination{Billing, Booking, TechSupport, Retention}
}

// Valid reports whether d is a member of the enumerated set.
func (d Destination) Valid() bool {
	switch d {
	case Billing, Booking, TechSupport, Retention:
		return true
	}
	return false
}

func (d Destination) String() string { return string(d) }

// destinationAliases maps alternative spellings onto canonical destinations.
// Model output commonly uses the "<name>_agent" form.
var destinationAliases = map[string]Destination{
	"billing_agent":   Billing,
	"booking_agent":   Booking,
	"tech":            TechSupport,
	"tech_agent":      TechSupport,
	"tech-support":    TechSupport,
	"techsupport":     TechSupport,
	"support":         TechSupport,
	"retention_agent": Retention,
}

// ParseDestination converts raw classifier output into a Destination.
// Matching is case-insensitive and accepts known aliases; anything else
// fails with ErrInvalidDestination.
func ParseDestination(raw string) (Destination, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if d := Destination(key); d.Valid() {
		return d, nil
	}
	if d, ok := destinationAliases[key]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDestination, raw)
}

// Sentiment is the caller's emotional tone as judged by the classifier.
type Sentiment string

// Sentiment constants
const (
	SentimentPositive   Sentiment = "positive"
	SentimentNeutral    Sentiment = "neutral"
	SentimentNegative   Sentiment = "negative"
	SentimentFrustrated Sentiment = "frustrated"
)

// NormalizeSentiment maps raw text to a Sentiment, defaulting to neutral.
func NormalizeSentiment(raw string) Sentiment {
	switch s := Sentiment(strings.ToLower(strings.TrimSpace(raw))); s {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentFrustrated:
		return s
	}
	return SentimentNeutral
}

// Urgency is how time-sensitive the request appears.
type Urgency string

// Urgency constants
const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// NormalizeUrgency maps raw text to an Urgency, defaulting to low.
func NormalizeUrgency(raw string) Urgency {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(raw))); u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return u
	}
	return UrgencyLow
}

// Decision is the outcome of classifying one turn.
type Decision struct {
	Destination Destination `json:"destination"`
	Sentiment   Sentiment   `json:"sentiment,omitempty"`
	Urgency     Urgency     `json:"urgency,omitempty"`
}

// Validate checks the destination and normalizes the metadata in place.
func (d *Decision) Validate() error {
	if !d.Destination.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDestination, d.Destination)
	}
	d.Sentiment = NormalizeSentiment(string(d.Sentiment))
	d.Urgency = NormalizeUrgency(string(d.Urgency))
	return nil
}
