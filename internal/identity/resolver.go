// Package identity resolves caller identities. Credential verification is
// an external collaborator's job; this service only consumes the result.
package identity

import (
	"context"
	"errors"
	"strings"
)

var ErrUnknownCredential = errors.New("unknown credential")

// Resolver maps a bearer credential to a stable viewer id.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (string, error)
}

// GatewayResolver trusts sessions minted by the upstream gateway, which
// encodes the verified subject as "v1.<viewer-id>.<opaque>". Anything else
// is rejected.
type GatewayResolver struct{}

// NewGatewayResolver constructs a GatewayResolver.
func NewGatewayResolver() *GatewayResolver {
	return &GatewayResolver{}
}

// Resolve extracts the subject from a gateway session credential.
func (r *GatewayResolver) Resolve(_ context.Context, credential string) (string, error) {
	parts := strings.Split(credential, ".")
	if len(parts) != 3 || parts[0] != "v1" || parts[1] == "" {
		return "", ErrUnknownCredential
	}
	return parts[1], nil
}

// StaticResolver resolves from a fixed credential table. Used in tests and
// local development.
type StaticResolver struct {
	sessions map[string]string
}

// NewStaticResolver constructs a StaticResolver over the given table.
func NewStaticResolver(sessions map[string]string) *StaticResolver {
	return &StaticResolver{sessions: sessions}
}

// Resolve looks the credential up in the table.
func (r *StaticResolver) Resolve(_ context.Context, credential string) (string, error) {
	viewerID, ok := r.sessions[credential]
	if !ok {
		return "", ErrUnknownCredential
	}
	return viewerID, nil
}
