// Package keystore defines the key-value contract PairJournal uses to persist
// wrapped keys, partner links and pending shared keys, together with the path
// layout and the per-account access policy.
//
// Records are opaque byte slices addressed by slash-separated paths scoped
// under per-account subtrees:
//
//	accounts/{id}/profile
//	accounts/{id}/partner_link
//	pending_shared_keys/{id}
//	emails/{hash}
//	credentials/{id}
//
// No transaction spans two paths. Backends live in sub-packages (postgres,
// sqlite, couch, s3store); NewMemoryStore serves tests and single-process use.
package keystore
