package loader

import "github.com/Sternrassler/pokedex-loader/pkg/pokemon"

// State is a snapshot of the loader's view state.
type State struct {
	Records          []pokemon.Record `json:"records"`
	IsLoading        bool             `json:"isLoading"`
	LastError        string           `json:"lastError,omitempty"`
	Selected         *pokemon.Record  `json:"selected,omitempty"`
	CurrentPageIndex int              `json:"currentPageIndex"`
	HasMore          bool             `json:"hasMore"`
	SearchQuery      string           `json:"searchQuery,omitempty"`
}

// Phase names the coarse loader state for display and logging.
type Phase string

// Phases of a loader: idle -> loading -> idle or error, exhausted once the
// listing has no further pages.
const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseError     Phase = "error"
	PhaseExhausted Phase = "exhausted"
)

// Phase derives the coarse state from the snapshot.
func (s State) Phase() Phase {
	switch {
	case s.IsLoading:
		return PhaseLoading
	case s.LastError != "":
		return PhaseError
	case !s.HasMore:
		return PhaseExhausted
	default:
		return PhaseIdle
	}
}
