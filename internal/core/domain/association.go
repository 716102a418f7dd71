package domain

import "fmt"

// EdgeKind names one of the user-scoped many-to-many associations.
type EdgeKind string

const (
	EdgeBlacklist EdgeKind = "blacklist"
	EdgeLanguage  EdgeKind = "language"
	EdgeTown      EdgeKind = "town"
)

// Edge is a single (user, target) association row. TargetID is a translator
// id for blacklist edges, a language id for language edges and a town id for
// town edges.
type Edge struct {
	Kind     EdgeKind
	UserID   int64
	TargetID int64
}

// Town is a serviceable location.
type Town struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ErrUnknownEdgeKind is returned by stores asked about an unsupported kind.
type ErrUnknownEdgeKind struct {
	Kind EdgeKind
}

func (e ErrUnknownEdgeKind) Error() string {
	return fmt.Sprintf("unknown edge kind %q", string(e.Kind))
}
