package models

// RefreshTokenRequest asks the server for a fresh access token before the
// current one expires.
type RefreshTokenRequest struct {
	Token string `json:"token"`
}

// RefreshTokenResponse carries the replacement access token.
type RefreshTokenResponse struct {
	AccessToken string `json:"access_token"`
}
