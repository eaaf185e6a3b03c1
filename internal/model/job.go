package model

import (
	"context"
	"time"
)

// Source identifies the ATS platform a posting came from. The set is closed:
// dispatch is always on this enum, never on payload shape.
type Source string

const (
	SourceGreenhouse      Source = "greenhouse"
	SourceLever           Source = "lever"
	SourceAshby           Source = "ashby"
	SourceSmartRecruiters Source = "smartrecruiters"
	SourceRecruitee       Source = "recruitee"
)

// Sources lists every supported provider in registration order.
var Sources = []Source{
	SourceGreenhouse,
	SourceLever,
	SourceAshby,
	SourceSmartRecruiters,
	SourceRecruitee,
}

// Valid reports whether s names a supported provider.
func (s Source) Valid() bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

// Job is the canonical representation of a posting from any ATS.
// (Source, ExternalID) is the natural key; it never changes once assigned.
type Job struct {
	Source        Source     `json:"source"`
	ExternalID    string     `json:"external_id"` // provider-assigned, unique within Source
	Title         string     `json:"title"`
	Company       string     `json:"company"`
	Location      string     `json:"location,omitempty"`
	URL           string     `json:"url"` // canonical apply link
	PostedAt      *time.Time `json:"posted_at,omitempty"`      // provider publish time, not all APIs give one
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`     // freshest "updated" signal from the provider
	FirstIngested time.Time  `json:"first_ingested,omitempty"` // our clock, set once at first admission
}

// Outcome is the dedup store's verdict for one upserted job.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeInserted
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Connector fetches raw listings for one organization on one provider and
// maps them into canonical Jobs. Implementations are pure over the fetch
// result: no side effects beyond the outbound call.
type Connector interface {
	Fetch(ctx context.Context, org string) ([]Job, error)
}

// JobStore is the durable dedup set keyed by (Source, ExternalID).
type JobStore interface {
	// Upsert admits a job: OutcomeInserted for an unseen key,
	// OutcomeUpdated when the incoming UpdatedAt is strictly newer than the
	// stored one, OutcomeUnchanged otherwise (including lost insert races).
	Upsert(ctx context.Context, job Job) (Outcome, error)
	// Recent returns up to limit stored jobs, newest first.
	Recent(ctx context.Context, limit int) ([]Job, error)
}

// Classifier decides whether a canonical job is in scope.
type Classifier interface {
	Match(job Job) bool
}
