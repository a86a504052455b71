// Package accessregistry implements the role and affiliation registry: who
// holds the administrator, creator, gallery, and contract-whitelist roles,
// which role governs grants of each role, and the bidirectional
// gallery/artist affiliation graph.
//
// The registry has no dependency on the token ledger. The ledger consults it
// through the narrow interfaces.AccessControl surface to authorize minting
// and metadata overwrites.
//
// Invariants enforced on every mutation:
//   - a principal never holds Creator and Gallery simultaneously;
//   - an affiliation edge exists in both adjacency directions or neither;
//   - revoking Gallery or Creator removes the principal's affiliation edges
//     in the same atomic update.
package accessregistry
