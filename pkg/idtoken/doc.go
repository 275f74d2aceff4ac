// Package idtoken verifies identity tokens issued by third-party providers
// (Google, Apple) and normalizes their claims into a provider-agnostic
// profile.
//
// Verification checks the token signature against the provider's published
// key set (fetched over HTTPS with a timeout and cached), the issuer, the
// audience and the expiry. Every failure path fails closed: a provider whose
// key endpoint is unreachable yields ErrProviderUnavailable, never a
// successful verification.
//
// Providers are a closed set. Adding one means implementing Verifier and
// registering it in a Registry:
//
//	registry := idtoken.NewRegistry(
//		idtoken.NewGoogleVerifier(googleCfg),
//		idtoken.NewAppleVerifier(appleCfg),
//	)
//
//	verifier, err := registry.Verifier("google")
//	profile, err := verifier.Verify(ctx, rawToken, nil)
package idtoken
