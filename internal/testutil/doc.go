// Package testutil holds deterministic stand-ins for time and run IDs.
package testutil
