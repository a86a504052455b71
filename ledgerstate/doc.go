// Package ledgerstate holds the authoritative ledger state and the store
// abstraction the registries mutate it through.
//
// All mutations go through Store.Update, which applies the mutation to a
// deep copy of the state and only swaps it in when the mutation function
// returns nil. A failed operation therefore never leaves a partial write,
// and concurrent updates are serialized by the store's lock, matching the
// single-operation-atomic execution model of the host ledger.
//
// The store deliberately offers no multi-update transaction. Operations that
// commit first and may need to back out, like a safe transfer awaiting the
// recipient's acknowledgement, revert with a second Update that inverts
// exactly the fields they changed.
package ledgerstate
