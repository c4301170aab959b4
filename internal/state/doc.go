// Package state holds the in-memory session record of the simulation. Nothing
// is persisted; a replaced session is gone.
package state
