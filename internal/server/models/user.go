package models

import "time"

// User is an identity record. PasswordDigest holds a PHC-encoded digest and
// is empty only for accounts provisioned through an external Provider.
type User struct {
	ID                  string
	Email               string
	UserName            string
	PasswordDigest      string
	Roles               []string
	TwoFactorEnabled    bool
	TwoFactorSeed       string
	NotificationChannel string
	Provider            string
	PreviousPasswords   []PreviousPassword
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PreviousPassword is a digest the user has set before, most recent first.
type PreviousPassword struct {
	Digest     string
	RecordedAt time.Time
}
