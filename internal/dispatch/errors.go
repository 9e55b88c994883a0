package dispatch

// AuthError rejects a request before anything is resolved.
type AuthError struct {
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	return e.Detail
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a catalog entry that cannot serve the request,
// such as a service without a resource validator.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}
