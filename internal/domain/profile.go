package domain

import (
	"cmp"
	"slices"
)

// Profile is what the user tells the assistant about themselves: how much
// each value matters (0-100), free-form interests, and skills rated in stars.
type Profile struct {
	Values    []ProfileValue `json:"values"`
	Interests []string       `json:"interests"`
	Skills    []Skill        `json:"skills"`
}

type ProfileValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Skill struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

const (
	MaxValueWeight = 100
	MinSkillLevel  = 1
	MaxSkillLevel  = 5
)

// DefaultProfile is the profile of a user who has not edited theirs.
func DefaultProfile() Profile {
	return Profile{
		Values: []ProfileValue{
			{Name: "Развитие", Value: 90},
			{Name: "Свобода", Value: 85},
			{Name: "Креативность", Value: 75},
			{Name: "Безопасность", Value: 50},
		},
		Interests: []string{"Python", "AI/ML", "Стартапы", "WebDev"},
		Skills: []Skill{
			{Name: "Python", Level: 5},
			{Name: "JavaScript", Level: 4},
			{Name: "React", Level: 3},
		},
	}
}

func (p Profile) Clone() Profile {
	return Profile{
		Values:    slices.Clone(p.Values),
		Interests: slices.Clone(p.Interests),
		Skills:    slices.Clone(p.Skills),
	}
}

// TopValues returns the n highest-weighted values, heaviest first. Ties keep
// their order.
func (p Profile) TopValues(n int) []ProfileValue {
	values := slices.Clone(p.Values)
	slices.SortStableFunc(values, func(a, b ProfileValue) int {
		return cmp.Compare(b.Value, a.Value)
	})
	return values[:min(n, len(values))]
}
