package normalize

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"jobharvest/internal/domain"
)

// Count is one value with its number of occurrences.
type Count struct {
	Value string `json:"value"`
	N     int    `json:"n"`
}

// Summary describes a normalized dataset.
type Summary struct {
	TotalJobs     int            `json:"total_jobs"`
	Sources       map[string]int `json:"sources"`
	JobTypes      map[string]int `json:"job_types"`
	WithSalary    int            `json:"jobs_with_salary"`
	WithTools     int            `json:"jobs_with_tools"`
	AverageExp    *float64       `json:"average_exp"`
	AverageSalary *float64       `json:"average_salary"`
	TopLocations  []Count        `json:"top_locations"`
	TopCompanies  []Count        `json:"top_companies"`
}

const topN = 10

func Summarize(jobs []domain.Job) Summary {
	s := Summary{
		TotalJobs: len(jobs),
		Sources:   map[string]int{},
		JobTypes:  map[string]int{},
	}
	var (
		locations = map[string]int{}
		companies = map[string]int{}
		expSum    float64
		expN      int
		salSum    float64
	)
	for _, j := range jobs {
		s.Sources[j.Source]++
		s.JobTypes[j.JobType]++
		if j.Salary != nil {
			s.WithSalary++
			salSum += *j.Salary
		}
		if j.Tools != nil {
			s.WithTools++
		}
		if j.Exp != nil {
			expN++
			expSum += *j.Exp
		}
		if j.Location != nil {
			locations[*j.Location]++
		}
		if j.Company != "" {
			companies[j.Company]++
		}
	}
	if expN > 0 {
		v := expSum / float64(expN)
		s.AverageExp = &v
	}
	if s.WithSalary > 0 {
		v := salSum / float64(s.WithSalary)
		s.AverageSalary = &v
	}
	s.TopLocations = top(locations, topN)
	s.TopCompanies = top(companies, topN)
	return s
}

// top orders by count, then value, and keeps the first n.
func top(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for v, c := range m {
		out = append(out, Count{Value: v, N: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// WriteText prints s as aligned key/value lines.
func (s Summary) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "total_jobs: %d\n", s.TotalJobs)
	fmt.Fprintf(&b, "sources: %s\n", sortedCounts(s.Sources))
	fmt.Fprintf(&b, "job_types: %s\n", sortedCounts(s.JobTypes))
	fmt.Fprintf(&b, "jobs_with_salary: %d\n", s.WithSalary)
	fmt.Fprintf(&b, "jobs_with_tools: %d\n", s.WithTools)
	fmt.Fprintf(&b, "average_exp: %s\n", optFloat(s.AverageExp))
	fmt.Fprintf(&b, "average_salary: %s\n", optFloat(s.AverageSalary))
	fmt.Fprintf(&b, "top_locations: %s\n", joinCounts(s.TopLocations))
	fmt.Fprintf(&b, "top_companies: %s\n", joinCounts(s.TopCompanies))
	_, err := io.WriteString(w, b.String())
	return err
}

func sortedCounts(m map[string]int) string {
	return joinCounts(top(m, len(m)))
}

func joinCounts(cs []Count) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%s=%d", c.Value, c.N)
	}
	return strings.Join(parts, ", ")
}

func optFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *f)
}
