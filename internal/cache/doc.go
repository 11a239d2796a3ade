// Package cache implements the multi-tier result cache: an in-process LRU
// tier, an optional shared Redis tier, and an optional local SQLite tier,
// coordinated by MultiTier with write-through puts, read-time promotion, and
// short-lived negative caching of empty results.
package cache
