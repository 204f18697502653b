// Package catalog serves grant opportunities from a built-in dataset. A
// production deployment would back this with a grants API; the dataset here
// mirrors the shapes such an API returns.
package catalog

import (
	"sort"
	"strings"
	"time"
)

// Grant is one funding opportunity.
type Grant struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Organization       string    `json:"organization"`
	Amount             int       `json:"amount"`
	Deadline           time.Time `json:"deadline"`
	Category           string    `json:"category"`
	Description        string    `json:"description"`
	Eligibility        string    `json:"eligibility"`
	ApplicationProcess string    `json:"applicationProcess"`
	Requirements       []string  `json:"requirements"`
}

// Details is a Grant plus the enrichment served on the detail endpoint.
type Details struct {
	Grant
	SuccessFactors []string `json:"successFactors"`
	SimilarGrants  []Grant  `json:"similarGrants"`
}

// Filter narrows a catalog search. Zero values mean "no constraint".
type Filter struct {
	Keywords      string
	Category      string
	MaxAmount     int
	DeadlineAfter time.Time
	Limit         int
}

const defaultLimit = 10

// Catalog holds the grant dataset. Read-only after construction, safe for
// concurrent use.
type Catalog struct {
	grants []Grant
}

// New creates a Catalog with the built-in dataset. Deadlines are relative to
// startup so the data stays plausible regardless of when the process runs.
func New() *Catalog {
	return &Catalog{grants: sampleGrants(time.Now())}
}

// Search returns grants matching the filter, nearest deadline first.
func (c *Catalog) Search(f Filter) []Grant {
	keywords := strings.ToLower(f.Keywords)

	var out []Grant
	for _, g := range c.grants {
		if keywords != "" &&
			!strings.Contains(strings.ToLower(g.Title), keywords) &&
			!strings.Contains(strings.ToLower(g.Description), keywords) {
			continue
		}
		if f.Category != "" && g.Category != f.Category {
			continue
		}
		if f.MaxAmount > 0 && g.Amount > f.MaxAmount {
			continue
		}
		if !f.DeadlineAfter.IsZero() && g.Deadline.Before(f.DeadlineAfter) {
			continue
		}
		out = append(out, g)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Get returns the grant with the given id, enriched with success factors and
// up to three grants in the same category.
func (c *Catalog) Get(id string) (Details, bool) {
	for _, g := range c.grants {
		if g.ID != id {
			continue
		}
		d := Details{Grant: g, SuccessFactors: successFactors}
		for _, other := range c.grants {
			if other.Category == g.Category && other.ID != g.ID {
				d.SimilarGrants = append(d.SimilarGrants, other)
				if len(d.SimilarGrants) == 3 {
					break
				}
			}
		}
		return d, true
	}
	return Details{}, false
}

var successFactors = []string{
	"Clear alignment with grant objectives",
	"Demonstrated community need or research significance",
	"Realistic budget and timeline",
	"Strong evaluation or measurement plan",
	"Qualified team or organization",
}

func sampleGrants(now time.Time) []Grant {
	day := 24 * time.Hour
	return []Grant{
		{
			ID:                 "grant-001",
			Title:              "Community Development Block Grant",
			Organization:       "Department of Housing and Urban Development",
			Amount:             500000,
			Deadline:           now.Add(45 * day),
			Category:           "community_development",
			Description:        "Provides communities with resources to address a wide range of unique community development needs.",
			Eligibility:        "Local governments, states, and non-profit organizations",
			ApplicationProcess: "Two-stage application process with initial proposal and full application upon invitation.",
			Requirements: []string{
				"Community needs assessment",
				"Detailed project plan",
				"Budget with matching funds",
				"Timeline for implementation",
				"Impact measurement plan",
			},
		},
		{
			ID:                 "grant-002",
			Title:              "Research and Innovation Grant",
			Organization:       "National Science Foundation",
			Amount:             250000,
			Deadline:           now.Add(60 * day),
			Category:           "research",
			Description:        "Supports research projects that advance knowledge in science, technology, engineering, and mathematics.",
			Eligibility:        "Universities, research institutions, and qualified researchers",
			ApplicationProcess: "Online application with peer review process.",
			Requirements: []string{
				"Research proposal",
				"Preliminary results",
				"Budget justification",
				"Research team qualifications",
				"Institutional support letter",
			},
		},
		{
			ID:                 "grant-003",
			Title:              "Arts and Culture Project Grant",
			Organization:       "National Endowment for the Arts",
			Amount:             100000,
			Deadline:           now.Add(30 * day),
			Category:           "arts",
			Description:        "Supports projects that celebrate and preserve artistic and cultural heritage.",
			Eligibility:        "Non-profit arts organizations, museums, and community groups",
			ApplicationProcess: "Application with work samples and project narrative.",
			Requirements: []string{
				"Project description",
				"Artist biography",
				"Work samples",
				"Budget",
				"Community impact statement",
			},
		},
		{
			ID:                 "grant-004",
			Title:              "Small Business Innovation Grant",
			Organization:       "Small Business Administration",
			Amount:             150000,
			Deadline:           now.Add(90 * day),
			Category:           "business",
			Description:        "Funds innovative research and development projects by small businesses.",
			Eligibility:        "Small businesses with fewer than 500 employees",
			ApplicationProcess: "Multi-phase application with initial concept and full proposal.",
			Requirements: []string{
				"Business plan",
				"Innovation description",
				"Market analysis",
				"Commercialization strategy",
				"Team qualifications",
			},
		},
		{
			ID:                 "grant-005",
			Title:              "Environmental Conservation Grant",
			Organization:       "Environmental Protection Agency",
			Amount:             300000,
			Deadline:           now.Add(75 * day),
			Category:           "environment",
			Description:        "Supports projects that protect and conserve natural resources and ecosystems.",
			Eligibility:        "Environmental organizations, research institutions, and local governments",
			ApplicationProcess: "Online application with environmental impact assessment.",
			Requirements: []string{
				"Environmental impact statement",
				"Project plan",
				"Budget",
				"Sustainability plan",
				"Partnership details",
			},
		},
	}
}
