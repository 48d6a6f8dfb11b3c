package scrape

import (
	"time"

	"jobharvest/internal/domain"
)

// Assemble zips the listing columns and detail results into records. The
// number of job URLs decides the row count; shorter columns leave the
// remaining rows blank.
func Assemble(source, keyword string, now time.Time, basic Basic, details []Detail) []domain.RawJob {
	at := func(col []string, i int) string {
		if i < len(col) {
			return col[i]
		}
		return ""
	}
	date := now.Format(domain.PostingDateLayout)

	out := make([]domain.RawJob, 0, len(basic.URLs))
	for i, u := range basic.URLs {
		r := domain.RawJob{
			Source:      source,
			JobType:     keyword,
			PostingDate: date,
			URL:         u,
			JobID:       at(basic.IDs, i),
			Title:       at(basic.Titles, i),
			Salary:      at(basic.Salaries, i),
			Location:    at(basic.Locations, i),
			Exp:         at(basic.Exps, i),
			Company:     at(basic.Companies, i),
		}
		if i < len(details) {
			r.Level = details[i].Level
			r.Industry = details[i].Industry
			r.Description = details[i].Description
		}
		out = append(out, r)
	}
	return out
}
