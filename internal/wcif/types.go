// Package wcif models the slice of the WCA Competition Interchange Format
// that the times board reads and writes, and the HTTP client used to do so.
package wcif

import (
	"encoding/json"

	"github.com/hucube/timesboard/internal/timefmt"
)

type Competition struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Persons    []Person    `json:"persons"`
	Events     []Event     `json:"events"`
	Extensions []Extension `json:"extensions,omitempty"`
}

// Person carries two identifiers: the long-lived WCA user id and a
// per-competition registrant id. Upstream data is inconsistent about which
// one a round result's personId refers to, so both matter downstream.
type Person struct {
	ID           int           `json:"id"`
	RegistrantID int           `json:"registrantId,omitempty"`
	Name         string        `json:"name"`
	WCAID        string        `json:"wcaId,omitempty"`
	Registration *Registration `json:"registration,omitempty"`
}

type Registration struct {
	EventIDs []string `json:"eventIds"`
}

type Event struct {
	ID     string  `json:"id"`
	Rounds []Round `json:"rounds"`
}

type Round struct {
	ID        string     `json:"id"`
	Results   []Result   `json:"results,omitempty"`
	TimeLimit *TimeLimit `json:"timeLimit,omitempty"`
}

type TimeLimit struct {
	Centiseconds       int      `json:"centiseconds"`
	CumulativeRoundIDs []string `json:"cumulativeRoundIds,omitempty"`
}

type Result struct {
	PersonID int           `json:"personId"`
	Attempts []Attempt     `json:"attempts"`
	Average  timefmt.Centi `json:"average"`
	Best     timefmt.Centi `json:"best"`
}

type Attempt struct {
	Result timefmt.Centi `json:"result"`
}

// Extension is one entry of the record's extension list. Data stays raw so
// entries this service does not own round-trip through a commit untouched.
type Extension struct {
	ID      string          `json:"id"`
	SpecURL string          `json:"specUrl"`
	Data    json.RawMessage `json:"data"`
}
