package rooms

type createRoomResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type validateTokenRequest struct {
	Token string `json:"token"`
}

type validateTokenResponse struct {
	Valid bool `json:"valid"`

	// Remaining is seconds until expiry, omitted when the token is
	// invalid.
	Remaining float64 `json:"remaining,omitempty"`
}
