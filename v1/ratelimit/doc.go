// Package ratelimit counts calls per token against a shared store.
//
// FixedWindow counts calls inside wall-clock aligned windows with a single
// atomic increment; bursts straddling a window boundary are admitted. SlidingWindow
// keeps a timestamped log per token and admits a call when fewer than max
// calls were logged during the trailing window.
//
// Neither limiter keeps state in process: concurrent callers on any number of
// hosts share the counts held by the store. Store failures are returned to the
// caller and the call is not admitted.
package ratelimit
