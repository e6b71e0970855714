// Package trace records and replays allocation workloads.
//
// A trace is a stream of JSON lines, one operation each:
//
//	{"op":"alloc","id":1,"size":100}
//	{"op":"alloc","id":2,"size":64,"align":256}
//	{"op":"free","id":1}
//
// Ids name allocations within a trace; a free refers to the id of an earlier
// alloc. Streams may be compressed with zstd or LZ4; CodecFromPath picks the
// codec from a file extension (.zst, .lz4).
//
// Generate synthesizes random traces from a seeded source and Replay drives
// an allocator through a trace, so a workload seen once can be reproduced
// exactly.
package trace
