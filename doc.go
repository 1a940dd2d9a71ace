// Package quell is a database-access support layer for applications that
// talk to several SQL vendors through one abstraction.
//
// Quell resolves three things at runtime instead of at compile time:
//
//   - which vendor implementation to use, from a driver catalog file
//     (see package catalog)
//   - which SQL text to use for a named operation, through a cascading
//     chain of vendor- and version-specific statement resources
//     (see package queries)
//   - how a caller obtains a live connection, optionally wrapped in a
//     manually managed transaction (Manager)
//
// # Key Components
//
//   - Vendor: logical identity of a database implementation (name plus
//     optional version)
//   - Descriptor: static metadata describing how to load and connect to a
//     vendor's implementation
//   - Connector: turns configuration into live physical connections for
//     one vendor; file-backed and pooled variants live under
//     package connector
//   - Manager: owns a Connector and hands out connections and explicit
//     transaction handles
//
// Connectors register themselves with the connector package from their
// init functions, so a binary selects its vendors with blank imports:
//
//	import (
//		_ "github.com/quelldb/quell/connector/postgres"
//		_ "github.com/quelldb/quell/connector/sqlite"
//	)
package quell
