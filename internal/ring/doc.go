// Package ring implements an immutable consistent-hash ring with virtual
// nodes. A ring is built once from a membership snapshot; membership changes
// are handled by building a new ring and swapping it in whole, so concurrent
// readers never observe a partially rebuilt ring.
package ring
