// Package turnover measures how quickly freshly created outputs are consumed,
// at several window resolutions at once.
//
// Terminology
//   - Window size S: a tracker rotates whenever it observes an event whose
//     height is an exact multiple of S.
//   - Live set: outputs created since the tracker's last rotation.
//   - Turnover ratio: spends matched against the live set during a window,
//     divided by the live set size when the window closed.
//
// Main components
//   - Tracker: the unit replicated per window size. It owns one live set,
//     the cumulative matched-spend counter and the checkpoint taken at the
//     start of the current window, and appends a ratio sample to its history
//     at each rotation that closes a non-empty window.
//   - Ledger: an optional whole-stream set of unspent outputs. Creations
//     insert, spends remove. It grows with the unspent set and is therefore
//     only enabled on request.
//
// Neither type is safe for concurrent use. A single aggregation goroutine is
// expected to own every tracker and feed them events in stream order.
package turnover
