// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the reminder pipeline, so the worker only depends on a filtered, ordered
// range query and a single-row update that commits on its own.
package store
