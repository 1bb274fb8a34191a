package interfaces

// IdentityVerifier validates a bearer credential and yields the identity it
// was issued for. The gateway calls this once per connection; the REST
// middleware calls it once per request.
type IdentityVerifier interface {
	// Verify returns the user ID and role bound to the token, or
	// ErrInvalidCredential if the token is missing claims, expired, or
	// signed with the wrong key.
	Verify(token string) (userID, role string, err error)
}
