// Package encrefs implements the virtual reference-picture buffer of a video encoder.
//
// For every frame submitted to the encoder, an [Engine] decides which previously
// scheduled picture the frame may use as its motion-compensation reference,
// and maintains a bounded model of the decoder's picture buffer that guarantees
// the decision is realizable. Codec specific consumers translate the
// [Decision] it returns into storage slots and marking syntax.
//
// The following is a summary intended for maintainers.
//
// Glossary and invariants:
//
//   - Frame
//
//     Packed, whole-value status of one picture ([Frame]).
//     Non-reference frames are never stored.
//
//   - Short-term region
//
//     Sliding window ordered most-recent-first.
//     Committing a short-term frame evicts the oldest one once the window is full.
//     The window doubles as the backward-distance lookup table.
//
//   - Long-term region
//
//     Slots keyed by long-term index; at most one slot holds a given index.
//     Committing a long-term frame replaces the previous holder of its index.
//
//   - Lookup tables
//
//     The last stored frame per symbolic category
//     (previous reference, short-term, long-term, intra),
//     per temporal layer and per long-term index.
//     Entries may outlive their frame in the regions; resolving such an entry
//     fails with [ErrPositionNotFound].
//
//   - Pattern
//
//     The short-term templates of a [ReferenceConfig], replayed in order.
//     Template 0 opens a GOP; once the last template is used the pattern
//     continues from template 1 (or 0 for single template patterns).
//
//   - Periodic counters
//
//     One per long-term template. After an initial delay, a counter promotes
//     every Period'th frame to a long-term reference. Only the first due
//     counter promotes a given frame.
//
// Operations:
//
//   - Configure
//
//     Validates the configuration and replays one pass of its pattern on a
//     scratch copy of the buffer (the dry run) to find the largest backward
//     short-term distance it needs. Capacity is that distance plus the number
//     of long-term templates, or of kept long-term frames if that is larger.
//
//   - Advance
//
//     Handles GOP boundaries (intra period, forced IDR, intra period changes),
//     stamps the next frame from the pattern, applies periodic counters and
//     user overrides, resolves and locates the reference, then commits.
//     The frame is decided on a copy of the buffer that replaces it only on
//     success. A forced long-term index that no slot was budgeted for grows
//     the capacity. GOP boundaries and growth request a header update.
//     The Before and After snapshots of consecutive decisions chain:
//     one decision's After equals the next decision's Before unless a GOP
//     boundary intervenes.
//
//   - Snapshot
//
//     Long-term slots in storage order, then short-term frames newest first,
//     bounded by the cache capacity.
//
//   - Stash / Rollback
//
//     Whole-state copy and restore, for retrying a frame with other parameters.
package encrefs
