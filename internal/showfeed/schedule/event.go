package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// marshal is json.Marshal without html escaping, urls keep their "&".
func marshal(v any) ([]byte, error) {
	buff := bytes.NewBuffer(nil)
	encoder := json.NewEncoder(buff)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(v)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buff.Bytes(), []byte("\n")), nil
}

const (
	DateLayout        = "2006-01-02 15:04"
	DisplayDateLayout = "02.01.2006"
	DisplayTimeLayout = "15:04"
)

// Event is a single performance, At is the venue-local wall clock time.
type Event struct {
	At        time.Time
	TicketUrl string
}

type eventJson struct {
	Date        string `json:"date"`
	DisplayDate string `json:"display_date"`
	DisplayTime string `json:"display_time"`
	TicketUrl   string `json:"ticket_url"`
}

func (e Event) Date() string {
	return e.At.Format(DateLayout)
}

func (e Event) DisplayDate() string {
	return e.At.Format(DisplayDateLayout)
}

func (e Event) DisplayTime() string {
	return e.At.Format(DisplayTimeLayout)
}

func (e Event) String() string {
	return fmt.Sprintf("%s (%s)", e.Date(), e.TicketUrl)
}

func (e Event) MarshalJSON() ([]byte, error) {
	return marshal(eventJson{
		Date:        e.Date(),
		DisplayDate: e.DisplayDate(),
		DisplayTime: e.DisplayTime(),
		TicketUrl:   e.TicketUrl,
	})
}

// UnmarshalJSON only reads `date`, the display fields are derived from it.
// The wall clock is kept, the location is UTC.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJson
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}
	at, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("event date: %w", err)
	}
	e.At = at
	e.TicketUrl = raw.TicketUrl
	return nil
}

// Production is one show with its metadata and upcoming events. Director,
// Author and Duration are nil when unknown and encode as null.
type Production struct {
	Title    string  `json:"title"`
	Theater  string  `json:"theater"`
	Image    string  `json:"image"`
	BaseUrl  string  `json:"base_url"`
	Director *string `json:"director"`
	Author   *string `json:"author"`
	Duration *string `json:"duration"`
	Events   []Event `json:"events"`
}

func (p Production) MarshalJSON() ([]byte, error) {
	type production Production
	out := production(p)
	if out.Events == nil {
		out.Events = []Event{}
	}
	return marshal(out)
}

// Skeleton returns the production with its identity only: no events and no
// metadata.
func (p Production) Skeleton() Production {
	return Production{
		Title:   p.Title,
		Theater: p.Theater,
		Image:   p.Image,
		BaseUrl: p.BaseUrl,
		Events:  []Event{},
	}
}
