package queries

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/quelldb/quell"
)

// Node is one resolved backing resource in a statement chain, linked to
// the next less-specific resource. Entries are immutable once loaded;
// the per-node cache fills lazily as identifiers are resolved through
// the node and is safe for concurrent lookups.
type Node struct {
	source  string
	entries map[string]string
	parent  *Node

	mu    sync.RWMutex
	cache map[string]string
}

// Source returns the name of the backing resource, e.g.
// "statements_mysql-8.properties".
func (n *Node) Source() string {
	return n.source
}

// Parent returns the next less-specific node, or nil at the baseline.
func (n *Node) Parent() *Node {
	return n.parent
}

// Resolve returns the text for identifier, trying this node first and
// falling back through the parent chain. The first hit is cached on the
// node the lookup started from, not on the node that held the entry, so
// later lookups skip the walk. A miss at every level returns a
// *quell.NotFoundError naming the identifier and this node's source.
func (n *Node) Resolve(identifier string) (string, error) {
	n.mu.RLock()
	text, ok := n.cache[identifier]
	n.mu.RUnlock()
	if ok {
		return text, nil
	}

	for cur := n; cur != nil; cur = cur.parent {
		if text, ok := cur.entries[identifier]; ok {
			n.mu.Lock()
			n.cache[identifier] = text
			n.mu.Unlock()
			return text, nil
		}
	}

	return "", &quell.NotFoundError{Identifier: identifier, Source: n.source}
}

// Chain builds the statement chain for base and vendor from fsys.
//
// Candidate names go from generic to specific: base, then
// base_<vendor>, then base_<vendor>-<version> when the vendor carries a
// version. Every candidate that exists in some supported format becomes
// a node whose parent is the previously linked (less specific) node; a
// missing specificity level is simply skipped, so an override file two
// levels up links straight to the baseline. The returned head is the
// most specific node that loaded.
//
// A candidate that exists but fails to parse is skipped with a warning;
// construction only fails when no candidate loads at all.
func Chain(fsys fs.FS, base string, vendor quell.Vendor) (*Node, error) {
	if base == "" {
		return nil, fmt.Errorf("statement chain: %w: empty base name", quell.ErrInvalidInput)
	}

	var head *Node
	candidate := base
	for {
		node, err := loadNode(fsys, candidate)
		if err != nil {
			slog.Warn("skipping unreadable statement resource", "candidate", candidate, "err", err)
		} else if node != nil {
			node.parent = head
			head = node
		}

		next, ok := nextCandidate(candidate, vendor)
		if !ok {
			break
		}
		candidate = next
	}

	if head == nil {
		return nil, fmt.Errorf("statement chain %q for %s: %w: no resolvable resource", base, vendor, quell.ErrInvalidInput)
	}
	return head, nil
}

// nextCandidate returns the next, more specific candidate name: first
// the vendor name is appended, then the version. ok is false when no
// more specific candidate exists.
func nextCandidate(candidate string, vendor quell.Vendor) (string, bool) {
	if vendor.Name != "" && !strings.Contains(candidate, "_"+vendor.Name) {
		return candidate + "_" + vendor.Name, true
	}
	if vendor.Versioned() {
		suffix := "-" + strconv.Itoa(vendor.Version)
		if !strings.HasSuffix(candidate, suffix) {
			return candidate + suffix, true
		}
	}
	return "", false
}

// loadNode probes candidate against every supported format in order and
// wraps the first resource that exists. A nil node with nil error means
// the candidate does not exist in any format.
func loadNode(fsys fs.FS, candidate string) (*Node, error) {
	for _, f := range formats {
		name := candidate + "." + f.ext

		data, err := fs.ReadFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		entries, err := f.parser.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}

		return &Node{
			source:  name,
			entries: entries,
			cache:   make(map[string]string),
		}, nil
	}
	return nil, nil
}
