// Package classify turns raw Overpass elements into named, categorized
// records: it resolves a display name from the tag priority list and runs
// the ordered category-detection rules.
package classify

import (
	"fmt"
	"strings"

	"github.com/futuricity/livability/internal/rules"
)

// Classifier evaluates the detection table against a record's tags and
// resolved name. It is pure and safe for concurrent use.
type Classifier struct {
	tables *rules.Tables
}

// New creates a Classifier over the given tables.
func New(tables *rules.Tables) *Classifier {
	return &Classifier{tables: tables}
}

// ResolveName picks the display name from the configured tag priority
// list, falling back to "<category> facility" for unnamed records.
func (c *Classifier) ResolveName(tags map[string]string, queryCategory string) string {
	for _, key := range c.tables.NameFields {
		if v, ok := tags[key]; ok && v != "" {
			return v
		}
	}
	return fmt.Sprintf("%s facility", queryCategory)
}

// Detect returns the first category whose rule matches, in table order.
// ok is false when no rule matches; such records are not facilities.
// Identical (tags, name) input always yields the same output.
func (c *Classifier) Detect(tags map[string]string, name string) (category string, ok bool) {
	lower := strings.ToLower(name)
	for _, rule := range c.tables.Detection {
		if rule.Matches(tags, lower) {
			return rule.Category, true
		}
	}
	return "", false
}
