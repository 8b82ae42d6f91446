// Package profile holds the user-supplied attributes used to start a
// session, and the rules that decide when they can be submitted.
package profile

import (
	"errors"
	"fmt"
	"strings"
)

// Domains for the numeric fields.
const (
	MinSmokingFrequency = 1
	MaxSmokingFrequency = 30
	MinCravingLevel     = 1
	MaxCravingLevel     = 10
)

// Mood is the user's current mood, chosen from a fixed set.
type Mood string

const (
	MoodUnset    Mood = ""
	MoodHappy    Mood = "happy"
	MoodStressed Mood = "stressed"
	MoodBored    Mood = "bored"
	MoodAnxious  Mood = "anxious"
	MoodRelaxed  Mood = "relaxed"
)

var moods = []Mood{MoodHappy, MoodStressed, MoodBored, MoodAnxious, MoodRelaxed}

// Validation errors.
var (
	ErrMoodUnset   = errors.New("mood is not selected")
	ErrReasonEmpty = errors.New("reason to quit is empty")
	ErrUnknownMood = errors.New("unknown mood")
)

// Moods returns the selectable moods in display order.
func Moods() []Mood {
	out := make([]Mood, len(moods))
	copy(out, moods)
	return out
}

// ParseMood converts user input into a Mood. Matching is case-insensitive.
func ParseMood(s string) (Mood, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range moods {
		if string(m) == s {
			return m, nil
		}
	}
	return MoodUnset, fmt.Errorf("%w: %q", ErrUnknownMood, s)
}

// Label returns the capitalized display name.
func (m Mood) Label() string {
	if m == MoodUnset {
		return "Select your current mood"
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

// Profile is mutable until it is handed to the session initializer.
type Profile struct {
	SmokingFrequency int    `json:"smoking_frequency"`
	CravingLevel     int    `json:"craving_level"`
	Mood             Mood   `json:"mood"`
	ReasonToQuit     string `json:"reason_to_quit"`
}

// New returns a profile with default numeric values and nothing else set.
func New() Profile {
	return Profile{
		SmokingFrequency: MinSmokingFrequency,
		CravingLevel:     MinCravingLevel,
	}
}

// SetSmokingFrequency sets cigarettes per day, clamped to [1,30].
func (p *Profile) SetSmokingFrequency(n int) {
	p.SmokingFrequency = clamp(n, MinSmokingFrequency, MaxSmokingFrequency)
}

// SetCravingLevel sets the craving level, clamped to [1,10].
func (p *Profile) SetCravingLevel(n int) {
	p.CravingLevel = clamp(n, MinCravingLevel, MaxCravingLevel)
}

// NextMood cycles the mood selection forward (delta > 0) or backward.
// An unset mood moves to the first or last entry.
func (p *Profile) NextMood(delta int) {
	idx := -1
	for i, m := range moods {
		if m == p.Mood {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta >= 0:
		idx = 0
	case idx < 0:
		idx = len(moods) - 1
	default:
		idx = ((idx+delta)%len(moods) + len(moods)) % len(moods)
	}
	p.Mood = moods[idx]
}

// Validate reports every reason the profile cannot be submitted yet.
// Numeric fields always hold valid values and never block submission.
func (p Profile) Validate() error {
	var errs []error
	if p.Mood == MoodUnset {
		errs = append(errs, ErrMoodUnset)
	}
	if strings.TrimSpace(p.ReasonToQuit) == "" {
		errs = append(errs, ErrReasonEmpty)
	}
	return errors.Join(errs...)
}

// Submittable reports whether Validate passes.
func (p Profile) Submittable() bool {
	return p.Validate() == nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
