// Package interfaces defines the core types and contracts shared by the
// ArtLedger components: principal identities, roles, token identifiers,
// capability selectors, the event model, the error taxonomy, and the
// interfaces implemented by the access registry, the token ledger, and the
// storage backends.
//
// The package carries no implementation logic beyond value-type helpers, so
// every other package can depend on it without pulling in its siblings.
package interfaces
