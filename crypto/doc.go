// Package crypto implements the record encryption layer for point-to-point
// secure tunnels.
//
// Design goals:
//   - One AEAD instance per 256-bit key, fixed for the engine's lifetime
//   - XChaCha20-Poly1305 with a fresh 24-byte random nonce per record
//   - Self-contained sealed records: nonce || ciphertext || tag
//   - AAD bound into the tag, derived from protocol context, never on the wire
//   - A single opaque authentication-failure signal, never an oracle
//
// Key exchange, rotation, and transport framing belong to the layers around
// this package; the engine only turns a key and a message into a sealed
// record and back.
package crypto
