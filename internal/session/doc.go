// Package session orchestrates continuation requests and playback.
//
// A [Controller] holds the last known point that seeds the next
// continuation, the live [Controls], and the one playback scheduler. The
// last known point changes only when a run plays to its end, when a newer
// continuation supersedes a running one (the new dataset's anchor), or on
// Reset.
//
// Every Extend and Reset bumps a generation counter; a solver response
// that arrives after the generation moved on is discarded.
package session
