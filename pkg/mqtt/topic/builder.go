package topic

import (
	"strings"
)

// Builder encapsulates the logic for constructing MQTT topic strings.
// Topics follow the pattern {root}/{segment}/{identifier}.
type Builder struct {
	// root is the base namespace for all topics (e.g., "association/v1").
	root string
}

// NewBuilder creates a new Builder with the specified root namespace.
// Leading and trailing slashes are trimmed.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.Trim(root, "/")}
}

// Root returns the namespace every built topic starts with.
func (b *Builder) Root() string {
	return b.root
}

// Build returns {root}/{segment}/{id}. MQTT wildcard characters in id are
// replaced so that a device identifier can never widen a topic.
func (b *Builder) Build(segment, id string) string {
	id = strings.NewReplacer("+", "_", "#", "_", "/", "_").Replace(id)
	if b.root == "" {
		return segment + "/" + id
	}
	return b.root + "/" + segment + "/" + id
}
