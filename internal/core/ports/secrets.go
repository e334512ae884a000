package ports

import "errors"

// ErrUnknownSource is returned when no signing secret is configured for an
// event source.
var ErrUnknownSource = errors.New("no signing secret configured for source")

// SignatureSecrets resolves the shared secret used to verify the HMAC
// signature of events delivered by an external source.
type SignatureSecrets interface {
	// SecretFor returns the shared secret for the source, or ErrUnknownSource.
	SecretFor(source string) ([]byte, error)
}
