// Package chat orchestrates the conversation pipeline: load and decrypt
// the user's log, append the user turn, obtain the assistant reply from
// the completion provider, and persist the re-encrypted log.
//
// The pipeline is atomic with respect to provider failure: a failed
// completion call leaves the stored conversation exactly as it was, with
// no partial turn persisted. Overlapping posts for the same user are
// resolved by the store's version check; the loser surfaces
// store.ErrConflict instead of silently discarding turns.
package chat
