package server

// TokenResponse is returned by the key exchange route.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Client errors carry "detail", server errors "details".
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type ServerErrorResponse struct {
	Details string `json:"details"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}
