// Package tokenregistry implements the non-fungible token ledger: token
// existence, ownership, per-token approvals, operator approvals, and
// metadata URIs.
//
// Per-token lifecycle:
//
//	NonExistent -> Minted -> [Approved <-> Unapproved] -> Transferred* -> Burned
//
// NonExistent and Burned are indistinguishable in storage (no owner entry),
// and burned ids are never reused; the token pointer only grows.
//
// Minting is gated on the contract-whitelist role and metadata overwrites on
// the administrator role, both delegated to an injected
// interfaces.AccessControl. Safe transfers follow a two-phase protocol:
// commit the ownership change, then invoke the recipient's acknowledgement
// callback; a rejection reverts exactly the fields the transfer changed and
// withholds the Transfer event, so a reentrant callback can observe the
// post-transfer state, operations committed in between survive, and a token
// can never be duplicated or stranded.
package tokenregistry
