package pokemon

import "strings"

// specialStatPrefix is shortened in stat display names.
const specialStatPrefix = "special-"

// StatDisplayName shortens a leading "special-" to "sp. ".
//
// Example:
//
//	StatDisplayName("special-attack") // "sp. attack"
func StatDisplayName(name string) string {
	if rest, ok := strings.CutPrefix(name, specialStatPrefix); ok {
		return "sp. " + rest
	}
	return name
}

// FromPayload maps a raw detail payload into a Record.
func FromPayload(p DetailPayload) Record {
	fallback := deref(p.Sprites.FrontDefault)

	record := Record{
		ID:               p.ID,
		Name:             p.Name,
		ImageURL:         firstNonEmpty(deref(p.Sprites.Other.OfficialArtwork.FrontDefault), fallback),
		AnimatedImageURL: firstNonEmpty(deref(p.Sprites.Other.Showdown.FrontDefault), fallback),
		Types:            make([]Type, 0, len(p.Types)),
		Stats:            make([]Stat, 0, len(p.Stats)),
		HeightMeters:     float64(p.Height) / 10,
		WeightKilograms:  float64(p.Weight) / 10,
		Abilities:        make([]string, 0, len(p.Abilities)),
	}

	for _, t := range p.Types {
		record.Types = append(record.Types, Type{
			Name:  t.Type.Name,
			Color: ColorForType(t.Type.Name),
		})
	}

	for _, s := range p.Stats {
		record.Stats = append(record.Stats, Stat{
			Name:  StatDisplayName(s.Stat.Name),
			Value: s.BaseStat,
		})
	}

	for _, a := range p.Abilities {
		record.Abilities = append(record.Abilities, a.Ability.Name)
	}

	return record
}

// MatchesQuery reports whether the record name contains query,
// ignoring case. An empty query matches every record.
func (r Record) MatchesQuery(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Name), strings.ToLower(query))
}

// StatValue returns the value of the named stat and whether it exists.
func (r Record) StatValue(name string) (int, bool) {
	for _, s := range r.Stats {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
