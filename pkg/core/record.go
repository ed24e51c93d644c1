package core

import (
	"strings"
	"time"
)

// NotAvailable marks a field the source did not report.
const NotAvailable = "N/A"

// TimestampLayout is the fixed-width UTC layout of SearchRecord timestamps.
// Fixed width keeps lexical order equal to chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// ProductRecord is one product listing as reported by a source.
//
// Platform is set by the aggregator. SearchQuery, Location and Pincode are
// stamped by the search service once results are merged.
type ProductRecord struct {
	Name         string `json:"name"`
	Weight       string `json:"weight"`
	Price        string `json:"price"`
	Availability string `json:"availability"`
	Platform     string `json:"platform"`
	SearchQuery  string `json:"search_query"`
	Location     string `json:"location"`
	Pincode      string `json:"pincode"`
}

// Normalize trims descriptive fields and replaces blank ones with N/A.
func (p *ProductRecord) Normalize() {
	for _, f := range []*string{&p.Name, &p.Weight, &p.Price, &p.Availability} {
		*f = strings.TrimSpace(*f)
		if *f == "" {
			*f = NotAvailable
		}
	}
}

// Stamp sets the provenance fields from q.
func (p *ProductRecord) Stamp(q Query) {
	p.SearchQuery = q.Text
	p.Location = q.Location
	p.Pincode = q.Pincode
}

// Results wraps the matches list the way it is persisted and served.
type Results struct {
	Matches []ProductRecord `json:"matches"`
}

// SearchRecord is one completed live search as persisted in the store.
type SearchRecord struct {
	Query     string  `json:"query"`
	Location  string  `json:"location"`
	Pincode   string  `json:"pincode"`
	Timestamp string  `json:"timestamp"`
	Results   Results `json:"results"`
}

// NewSearchRecord builds a record for q stamped at t.
func NewSearchRecord(q Query, matches []ProductRecord, t time.Time) SearchRecord {
	if matches == nil {
		matches = []ProductRecord{}
	}
	return SearchRecord{
		Query:     q.Text,
		Location:  q.Location,
		Pincode:   q.Pincode,
		Timestamp: FormatTimestamp(t),
		Results:   Results{Matches: matches},
	}
}

// FormatTimestamp renders t with TimestampLayout in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Time parses the record timestamp. Timestamps written by other tools
// without the trailing Z are accepted too.
func (r SearchRecord) Time() (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, r.Timestamp); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999", r.Timestamp, time.UTC)
}

// Query is one user search request.
type Query struct {
	Text     string `json:"query"`
	Location string `json:"location"`
	Pincode  string `json:"pincode"`
}

// NewQuery builds a Query with surrounding whitespace removed.
func NewQuery(text, location, pincode string) Query {
	return Query{
		Text:     strings.TrimSpace(text),
		Location: strings.TrimSpace(location),
		Pincode:  strings.TrimSpace(pincode),
	}
}

// Validate returns ErrEmptyQuery when the query text is blank.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// HasLocation reports whether location-dependent sources can be queried.
func (q Query) HasLocation() bool {
	return strings.TrimSpace(q.Location) != ""
}
