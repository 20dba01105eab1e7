// Package proto declares the gophauth.v1.CredentialService wire contract:
// messages, the service descriptor, a client stub and the JSON codec.
package proto

type LoginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	AudienceToken string `json:"audience_token"`
}

type ExchangeRequest struct {
	RefreshToken  string `json:"refresh_token"`
	AudienceToken string `json:"audience_token"`
}

// TokenResponse answers Login and Exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdatePreferencesRequest is partial: nil fields are left unchanged.
type UpdatePreferencesRequest struct {
	TwoFactorEnabled    *bool   `json:"two_factor_enabled,omitempty"`
	NotificationChannel *string `json:"notification_channel,omitempty"`
}

// PreferencesResponse never carries the seed itself.
type PreferencesResponse struct {
	TwoFactorEnabled    bool   `json:"two_factor_enabled"`
	NotificationChannel string `json:"notification_channel"`
}

type RevokeRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type Empty struct{}
