// Package hospitable is the reservation provider client.
//
// It talks to the Hospitable API: password login, property listing, and
// per-property reservation retrieval for the upcoming booking window.
//
// # Token handling
//
// Logins are rate limited upstream, so the client reuses its bearer token
// for as long as the JWT's exp claim is more than 15 minutes away. The
// token is parsed without signature verification; the client only needs
// the expiry, the API remains the authority on validity. Concurrent
// refreshes are collapsed through singleflight so parallel trigger
// requests cannot stampede the login endpoint.
package hospitable
