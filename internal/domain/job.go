package domain

import (
	"strconv"
)

// PostingDateLayout is the day-first layout RawJob.PostingDate is stamped with.
const PostingDateLayout = "02-01-2006"

// RawJob is one scraped job before normalization. Blank strings mean the
// field was not found on the page.
type RawJob struct {
	Source      string
	JobType     string // the searched keyword
	PostingDate string
	JobID       string
	URL         string
	Title       string
	Salary      string
	Location    string
	Exp         string
	Company     string

	// Detail-page fields; nil when the detail page had no such element or
	// could not be fetched.
	Level       *string
	Industry    *string
	Description *string
}

// Job is a normalized job record. JobID is unique within one harvest run.
type Job struct {
	Source   string
	JobType  string
	Month    int
	Year     int
	JobID    string
	Title    string
	Salary   *float64 // million VND
	Location *string
	Exp      *float64 // years
	Level    *string
	Industry *string
	Company  string
	Tools    *string // comma-joined, sorted
}

// Columns is the fixed output column order shared by every table-shaped sink.
var Columns = []string{
	"source",
	"job_type",
	"month",
	"year",
	"job_id",
	"job_title",
	"salary",
	"location",
	"exp",
	"level",
	"industry",
	"company_name",
	"tools",
}

// Record projects j onto Columns. Absent values become empty strings.
func (j Job) Record() []string {
	return []string{
		j.Source,
		j.JobType,
		strconv.Itoa(j.Month),
		strconv.Itoa(j.Year),
		j.JobID,
		j.Title,
		formatFloat(j.Salary),
		deref(j.Location),
		formatFloat(j.Exp),
		deref(j.Level),
		deref(j.Industry),
		j.Company,
		deref(j.Tools),
	}
}

// DedupKey is the composite key storage sinks deduplicate on.
func (j Job) DedupKey() string {
	return j.JobID + "\x00" + strconv.Itoa(j.Month) + "\x00" + strconv.Itoa(j.Year)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
