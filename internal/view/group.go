// Package view turns configurator and gallery state into page models and
// renders them.
package view

import "storefront/internal/models"

// OptionGroup is the options of one type in the order they were received.
type OptionGroup struct {
	Type    string
	Options []models.Option
}

// Group partitions options by type name. Types appear in the order they are
// first seen while scanning options.
func Group(options []models.Option) []OptionGroup {
	index := make(map[string]int)
	var groups []OptionGroup
	for _, o := range options {
		i, ok := index[o.OptionTypeName]
		if !ok {
			i = len(groups)
			index[o.OptionTypeName] = i
			groups = append(groups, OptionGroup{Type: o.OptionTypeName})
		}
		groups[i].Options = append(groups[i].Options, o)
	}
	return groups
}
