// Package storage owns the managed on-disk layout: the fixed directory
// table, the package-record store, the PATH integration file, and the
// cross-process lock that serializes mutating invocations.
package storage
