package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultTerms are the tools and technologies looked for in job
// descriptions.
var DefaultTerms = []string{
	// analytics
	"Python", "R", "SQL", "Tableau", "Power BI", "Qlik", "Looker", "Data Studio",
	"Mysql", "Postgresql", "Oracle", "SQL Server", "Excel", "Google Sheet", "Powerpoint", "SPSS",
	// data engineering
	"Mongodb", "Bigquery", "Spark", "Amazon S3", "Google Cloud Storage", "Azure", "Kafka",
	"Flink", "Hive", "Presto", "Airflow", "Luigi", "Alation", "Collibra", "Redshift",
	"Snowflake", "Docker", "Kubernetes", "Terraform", "Informatica", "Talend", "SSIS", "ODI",
	// data science and ML
	"Matplotlib", "Spark", "Hadoop", "TensorFlow", "SAS", "BigML", "Scikit-learn",
	"Knime", "Matlab", "Pytorch", "Cloud Computing", "Keras", "Rapid Miner",
	"Azure Machine Learning", "Watson Studio", "Mahout", "RapidMiner", "Shogun",
	"OpenNN", "SageMaker",
	// product and delivery
	"Visio", "Jira", "Excel", "Power BI", "LucidChart", "Balsamiq", "Clickup",
	"Enterprise Architect", "Wrike", "Blueprint", "Confluence", "NetSuite",
	"Axure", "Trello",
}

// Lexicon matches canonical terms as standalone tokens in free text,
// ignoring case. It is read-only after construction.
type Lexicon struct {
	canonical map[string]string // lowercase -> canonical spelling
}

// NewLexicon builds a lexicon from terms. Blank terms are skipped; when two
// terms share a lowercase form the later spelling wins.
func NewLexicon(terms []string) *Lexicon {
	l := &Lexicon{canonical: make(map[string]string, len(terms))}
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		l.canonical[strings.ToLower(t)] = t
	}
	return l
}

func DefaultLexicon() *Lexicon { return NewLexicon(DefaultTerms) }

func (l *Lexicon) Len() int { return len(l.canonical) }

// Terms returns the canonical spellings, sorted.
func (l *Lexicon) Terms() []string {
	out := make([]string, 0, len(l.canonical))
	for _, t := range l.canonical {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Extract returns the sorted canonical terms found in text.
func (l *Lexicon) Extract(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for key, canon := range l.canonical {
		if containsToken(lower, key) {
			out = append(out, canon)
		}
	}
	sort.Strings(out)
	return out
}

// Tools is Extract joined with commas, nil when nothing matched.
func (l *Lexicon) Tools(text *string) *string {
	if text == nil || strings.TrimSpace(*text) == "" {
		return nil
	}
	found := l.Extract(*text)
	if len(found) == 0 {
		return nil
	}
	s := strings.Join(found, ",")
	return &s
}

// containsToken reports whether term occurs in text with no word rune
// directly before or after it.
func containsToken(text, term string) bool {
	for from := 0; from <= len(text)-len(term); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

// isWordRune covers ASCII word characters and the full Vietnamese alphabet,
// including combining tone marks left by decomposed input.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
