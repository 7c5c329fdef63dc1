// Package aggregates holds the error taxonomy shared by every layer and the
// contracts of the write boundaries that own record, registry, checkpoint
// and non-conformance writes.
package aggregates
