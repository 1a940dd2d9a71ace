// Package queries resolves SQL text with vendor- and version-specific
// overrides while keeping a single generic baseline.
//
// A statement chain is built from a base resource name and a vendor.
// For base "statements" and vendor mysql version 8 the chain probes
// "statements", "statements_mysql" and "statements_mysql-8", links every
// resource that exists, and makes the most specific one the head. A
// lookup walks from the head towards the baseline and returns the first
// hit, so an override file only needs to contain the identifiers it
// overrides.
//
// Backing resources are flat identifier -> text mappings in one of
// several interchangeable formats, selected by file extension:
// .properties (flat key-value), .json/.jsonc (nested, keys joined by
// "."), .yaml/.yml (nested, keys joined by ".") and .xml (tag-based).
package queries
