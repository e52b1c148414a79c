// Package lock provides mutual exclusion backed by remote store nodes.
//
// Single holds a lock record on one node. Quorum holds it on a majority of
// independent nodes and tolerates the failure of a minority of them. Both
// identify their records with an ownership token generated at construction,
// and release only records carrying that token. A holder that dies leaves a
// record the store expires once its lease elapses.
//
// Lock never waits for a busy lock; use Acquire to retry with backoff.
package lock
