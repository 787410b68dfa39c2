// Package storage provides the BBolt message store behind send and receive.
//
// Database structure uses two buckets:
//   - config: store version, creation time and store id
//   - messages: CBOR records keyed by a random UUID
//
// A message is deleted by the transaction that reads it, so every id can be
// received once. Records carry an expiry; expired records read as not found
// and are removed by Purge. Compact rewrites the file to reclaim the space.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
