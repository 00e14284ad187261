// Package model defines the core domain types for the academic event manager.
package model

// Header is the fixed header row of the persisted events file.
var Header = []string{"id", "title", "date", "location", "capacity"}

// DateLayout is the only accepted format for Event.Date.
const DateLayout = "2006-01-02"

// Event represents one academic event record.
type Event struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

// EventInput is the payload for creating or replacing an event.
type EventInput struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

// WithID builds the stored form of the input under the given id.
func (in EventInput) WithID(id int) Event {
	return Event{
		ID:       id,
		Title:    in.Title,
		Date:     in.Date,
		Location: in.Location,
		Capacity: in.Capacity,
	}
}

// EventFilter narrows a listing. Empty strings and nil bounds match anything.
type EventFilter struct {
	Title       string
	Date        string
	Location    string
	CapacityMin *int
	CapacityMax *int
}

// MessageResponse carries a human-readable status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// QuantityResponse is returned by the count endpoint.
type QuantityResponse struct {
	Quantity int `json:"quantity"`
}

// HashResponse is returned by the digest endpoint.
type HashResponse struct {
	HashSHA256 string `json:"hash_sha256"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
