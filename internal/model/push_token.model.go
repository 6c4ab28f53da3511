package model

import "time"

// PushToken is a per-device push registration. RevokedAt is monotonic but
// reversible: a fresh refresh of the same token clears it, since a device
// actively re-registering is evidence the token is live.
type PushToken struct {
	ID              int64      `json:"id"`
	ProfileID       int64      `json:"profile_id"`
	Token           string     `json:"token"`
	Platform        string     `json:"platform"`
	UserAgent       string     `json:"user_agent"`
	LastRefreshedAt time.Time  `json:"last_refreshed_at"`
	RefreshCount    int        `json:"refresh_count"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (t *PushToken) Revoked() bool {
	return t.RevokedAt != nil
}

// TokenRefreshRequest is the client payload for (re)registering a device.
type TokenRefreshRequest struct {
	ProfileID int64  `json:"profile_id"`
	Token     string `json:"token"`
	Platform  string `json:"platform"`
	UserAgent string `json:"user_agent"`
}
