// Package balancer routes client requests to the healthiest node with the
// lowest estimated latency to the client's region, degrading to a designated
// fallback node when nothing is healthy.
package balancer
