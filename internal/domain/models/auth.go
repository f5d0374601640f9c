package models

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Admin is the single configured administrator identity.
type Admin struct {
	Username string `json:"username"`
}
