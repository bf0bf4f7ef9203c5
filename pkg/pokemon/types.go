// Package pokemon defines the Pokédex data model and the mapping from raw
// PokeAPI payloads into display-ready records.
package pokemon

// Summary is a raw listing entry returned by the /pokemon endpoint.
type Summary struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Type is an elemental type annotated with its display color.
type Type struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Stat is a base stat with its display name.
type Stat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Record is the fully resolved, UI-ready representation of a Pokémon.
// Records are built once per Pokémon and never mutated afterwards.
type Record struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	ImageURL         string   `json:"imageUrl"`
	AnimatedImageURL string   `json:"animatedImageUrl,omitempty"`
	Types            []Type   `json:"types"`
	Stats            []Stat   `json:"stats"`
	HeightMeters     float64  `json:"heightMeters"`
	WeightKilograms  float64  `json:"weightKilograms"`
	Abilities        []string `json:"abilities"`
}

// ListPayload is the body of GET /pokemon?limit=&offset=.
type ListPayload struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []Summary `json:"results"`
}

// HasNext reports whether the listing indicates a further page.
func (p ListPayload) HasNext() bool {
	return p.Next != nil
}

// NamedResource is the {name, url} reference PokeAPI uses for nested objects.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Sprite holds a single front image reference. A nil FrontDefault means the
// image is absent.
type Sprite struct {
	FrontDefault *string `json:"front_default"`
}

// Sprites is the subset of the sprites object used for records.
type Sprites struct {
	FrontDefault *string `json:"front_default"`
	Other        struct {
		OfficialArtwork Sprite `json:"official-artwork"`
		Showdown        Sprite `json:"showdown"`
	} `json:"other"`
}

// TypeSlot is one entry of the types array.
type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// StatEntry is one entry of the stats array.
type StatEntry struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

// AbilitySlot is one entry of the abilities array.
type AbilitySlot struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

// DetailPayload is the body of GET /pokemon/{nameOrId}, reduced to the
// fields a Record is derived from.
type DetailPayload struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	Height    int           `json:"height"` // decimeters
	Weight    int           `json:"weight"` // hectograms
	Sprites   Sprites       `json:"sprites"`
	Types     []TypeSlot    `json:"types"`
	Stats     []StatEntry   `json:"stats"`
	Abilities []AbilitySlot `json:"abilities"`
}
