package bot

import "errors"

// Startup and connection failures. Each is fatal and never retried.
var (
	ErrIdentityFetch    = errors.New("failed to fetch bot identity")
	ErrStoreUnavailable = errors.New("failed to load listen set from store")
	ErrGatewayConnect   = errors.New("gateway connection failed")
)
