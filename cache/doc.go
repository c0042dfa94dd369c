// Package cache provides short-lived caching of rendered health reports.
//
// It provides a Cache interface with a memory implementation, TTL policies,
// and a Middleware that serves fresh entries and reloads stale ones.
// Aggressive probers (load balancers polling every second) can be answered
// from cache so dependencies are not probed on every request.
package cache
