// Package auth provides credential utilities for webhook and trigger
// integrations.
//
// This package includes:
//   - Webhook bearer token verification (the receiving side of the
//     signed deliveries produced by the notify package)
//   - Secret generation with configurable prefixes
//   - Secret hashing for storage and log-safe fingerprints
//
// # Webhook Verification
//
// Verify an incoming webhook delivery:
//
//	claims, err := auth.VerifyWebhookHeader(secret, "orion", r.Header.Get("Authorization"))
//	if err != nil {
//	    http.Error(w, "unauthorized", http.StatusUnauthorized)
//	    return
//	}
//	fmt.Println(claims.Event, claims.RunID)
//
// # Secrets
//
// Generate a webhook signing secret:
//
//	cfg := auth.SecretConfig{Prefix: "orion_whsec_"}
//	sec, err := auth.GenerateSecret(cfg)
//	// sec.Secret: "orion_whsec_aBc123..." (show once)
//	// sec.Hash:   SHA-256 hash for storage
//	// sec.Prefix: "orion_whsec_..." (display prefix)
//
// # Hashing
//
// Hash secrets for storage, or fingerprint them for logs:
//
//	hash := auth.HashSecret(secret) // store this
//	fp := auth.Fingerprint(secret)  // log this
//
// The ssh subpackage provides SSH key discovery used as a preflight
// check before cloning SSH remotes.
package auth
