// Package config loads and validates quell configuration.
//
// Configuration comes from, in order of precedence: command-line flags,
// QUELL_-prefixed environment variables, one or more config files, and
// built-in defaults. The loaded Config selects the vendor, points at
// the driver catalog and statement resources, and carries the free-form
// settings map handed to Manager.Connect.
package config
