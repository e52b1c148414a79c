// Package collection provides distributed queues and stacks backed by Redis
// lists. Values are encoded with a Codec (JSON by default). When a maximum size
// is set, bounds are enforced by server-side scripts so concurrent writers on
// any host never observe an oversized list.
package collection
