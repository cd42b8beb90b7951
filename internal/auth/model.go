package auth

import "context"

// Credential is a stored username/password record. The password is held in
// the form the store returns it; this package only ever compares it.
type Credential struct {
	Username string
	Password string
}

// CredentialQueryResult mirrors the store's scan response: how many records
// matched the exact username, and the records themselves.
type CredentialQueryResult struct {
	Count int
	Items []Credential
}

// CredentialStore is the read contract against the backing credential table.
// Lookups are exact-match and case-sensitive.
type CredentialStore interface {
	Query(ctx context.Context, usernameEquals string) (CredentialQueryResult, error)
}
