package verification

import "context"

// StubProofVerifier answers every possession check with a fixed result.
// Early deployments run with this until the origin network exposes a real
// PDP endpoint.
type StubProofVerifier struct {
	Valid bool
}

func (s StubProofVerifier) VerifyProof(context.Context, string, string) (bool, error) {
	return s.Valid, nil
}

// SignerRecovererFunc adapts a function to the SignerRecoverer interface.
type SignerRecovererFunc func(ctx context.Context, documentHash string, signature []byte) (string, error)

func (f SignerRecovererFunc) RecoverSigner(ctx context.Context, documentHash string, signature []byte) (string, error) {
	return f(ctx, documentHash, signature)
}

// ChainLookupFunc adapts a function to the ChainLookup interface.
type ChainLookupFunc func(ctx context.Context, txRef string) (bool, error)

func (f ChainLookupFunc) Exists(ctx context.Context, txRef string) (bool, error) {
	return f(ctx, txRef)
}
