// Package cluster defines the physical topology model: nodes with a region,
// a capacity, and an externally driven load signal, plus a static inter-region
// latency estimate used for placement decisions. Each node owns its local
// key-value store.
package cluster
