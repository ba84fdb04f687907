// Package events fans scrape progress out to websocket subscribers.
package events

import "time"

const (
	TypeWelcome       = "welcome"
	TypeScrapeStarted = "scrape.started"
	TypeScrapePage    = "scrape.page"
	TypeScrapeDone    = "scrape.finished"
	TypeScrapeFailed  = "scrape.failed"
)

type Event struct {
	Type  string    `json:"type"`
	JobID string    `json:"job_id,omitempty"`
	Data  any       `json:"data,omitempty"`
	At    time.Time `json:"at"`
}

// Publisher is the sending side of the hub.
type Publisher interface {
	Publish(e Event)
}
