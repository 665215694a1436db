package model

import "context"

// FederatedIdentity is the verified identity asserted by an external provider.
type FederatedIdentity struct {
	Email   string
	Name    string
	Picture string
}

// FederatedVerifier verifies a credential issued by an external identity provider.
type FederatedVerifier interface {
	Verify(ctx context.Context, credential string) (FederatedIdentity, error)
}

// Notifier delivers login links to users.
type Notifier interface {
	SendLoginLink(ctx context.Context, email, link string) error
}
