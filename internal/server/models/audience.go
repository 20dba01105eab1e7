package models

import "time"

// Audience is a registered downstream consumer of tokens. Token is the
// opaque bearer value clients present; ID is what tokens embed.
type Audience struct {
	ID        string
	Name      string
	Token     string
	CreatedAt time.Time
}
