// Package directory lists the members of the team.
package directory

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/pomerium/teamdash/internal/fallback"
	"github.com/pomerium/teamdash/internal/telemetry/metrics"
)

// DefaultLocation is shown for members without a city.
const DefaultLocation = "Remote"

// A Member is a person on the team.
type Member struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	City     string `json:"city,omitempty"`
}

// UnmarshalJSON accepts the city either as a top-level "city" field or
// nested under "address".
func (m *Member) UnmarshalJSON(data []byte) error {
	type member Member
	var v struct {
		member
		Address struct {
			City string `json:"city"`
		} `json:"address"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Member(v.member)
	if m.City == "" {
		m.City = v.Address.City
	}
	return nil
}

// Location returns the member's city, or DefaultLocation.
func (m Member) Location() string {
	if m.City == "" {
		return DefaultLocation
	}
	return m.City
}

// A Provider returns the team members.
type Provider interface {
	Members(ctx context.Context) ([]Member, error)
}

var demoMembers = []Member{
	{ID: 1, Name: "Alex Rivera", Username: "arivera", Email: "alex@design.co", City: "Berlin"},
	{ID: 2, Name: "Sarah Chen", Username: "schen", Email: "sarah@tech.io", City: "Tokyo"},
	{ID: 3, Name: "Mike Ross", Username: "mross", Email: "mike@legal.net", City: "New York"},
	{ID: 4, Name: "Isabella Silva", Username: "bella", Email: "isa@art.br", City: "Rio"},
	{ID: 5, Name: "David Kim", Username: "dkim", Email: "david@code.kr", City: "Seoul"},
	{ID: 6, Name: "Emma Watson", Username: "emma", Email: "emma@act.uk", City: "London"},
}

// DemoMembers returns the built-in member list shown when the directory
// cannot be fetched.
func DemoMembers() []Member {
	return slices.Clone(demoMembers)
}

// Load returns the members from p, or DemoMembers if p fails.
func Load(ctx context.Context, p Provider) []Member {
	return fallback.Fetch(ctx, p.Members, func() []Member {
		metrics.RecordDirectoryFallback()
		return DemoMembers()
	})
}

// Filter returns the members whose name, username or email contains query,
// ignoring case. An empty query matches everyone.
func Filter(members []Member, query string) []Member {
	q := strings.ToLower(query)
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(strings.ToLower(m.Username), q) ||
			strings.Contains(strings.ToLower(m.Email), q) {
			out = append(out, m)
		}
	}
	return out
}

// Stats summarizes a member list.
type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Pending int `json:"pending"`
}

// ComputeStats derives the summary for members. Members at even positions
// count as active and a third of the team, rounded down, as pending.
func ComputeStats(members []Member) Stats {
	return Stats{
		Total:   len(members),
		Active:  (len(members) + 1) / 2,
		Pending: len(members) / 3,
	}
}
