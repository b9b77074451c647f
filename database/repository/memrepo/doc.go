// Package memrepo provides in-memory repositories with the same guarded
// update semantics as the Mongo implementations. Service tests use them in
// place of a database.
package memrepo
