// Package store provides the keyed persistence implementations behind the
// vault. The in-memory store serves dev and tests; the postgres store is the
// persistent option. Implementations own their synchronization so the vault
// never holds a lock across a store call.
//
// Error contract: Find returns sentinel.ErrNotFound (wrapped) when the id is
// absent; Delete reports absence through its boolean, not an error; all other
// failures are wrapped infrastructure errors.
package store
