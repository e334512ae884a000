// Package secrets provides the configuration-backed implementation of the
// SignatureSecrets port.
package secrets

import (
	"fulfillment/internal/core/ports"
)

// StaticSecrets resolves webhook signing secrets from an in-memory map
// loaded at startup from configuration.
type StaticSecrets struct {
	bySource map[string][]byte
}

// NewStaticSecrets creates a resolver over the given source-to-secret map.
func NewStaticSecrets(bySource map[string]string) *StaticSecrets {
	secrets := make(map[string][]byte, len(bySource))
	for source, secret := range bySource {
		secrets[source] = []byte(secret)
	}
	return &StaticSecrets{bySource: secrets}
}

// SecretFor returns the shared secret for the source, or ErrUnknownSource.
func (s *StaticSecrets) SecretFor(source string) ([]byte, error) {
	secret, ok := s.bySource[source]
	if !ok {
		return nil, ports.ErrUnknownSource
	}
	return secret, nil
}
