// Package partner implements the two-account handshake that establishes a
// shared key between partners.
//
// The inviter generates the shared key, keeps a copy wrapped under its own
// KEK and leaves the raw key in a pending record addressed to the invitee.
// The invitee completes the link on its next login (Reconcile) by wrapping
// the key under its own KEK and deleting the pending record. No step assumes
// a cross-path transaction: the inviter side is guarded by a compensation
// list and the invitee side is repaired by Reconcile, which is idempotent.
package partner
