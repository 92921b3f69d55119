// Package middleware provides the HTTP middleware chain: request logging,
// response compression, and Prometheus instrumentation.
package middleware
