package thredds

import (
	"fmt"
	"regexp"
)

// Filter decides whether a catalog ref or dataset, identified by its ID, is
// followed.
type Filter interface {
	Test(id string) bool
}

// Include passes IDs that contain a match of the pattern.
type Include struct{ re *regexp.Regexp }

// Exclude passes IDs that do not contain a match of the pattern.
type Exclude struct{ re *regexp.Regexp }

// NewInclude compiles pattern into an Include filter.
func NewInclude(pattern string) (*Include, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("include filter %q: %w", pattern, err)
	}
	return &Include{re: re}, nil
}

// NewExclude compiles pattern into an Exclude filter.
func NewExclude(pattern string) (*Exclude, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("exclude filter %q: %w", pattern, err)
	}
	return &Exclude{re: re}, nil
}

func (f *Include) Test(id string) bool { return f.re.MatchString(id) }
func (f *Exclude) Test(id string) bool { return !f.re.MatchString(id) }

// FilterTarget selects which candidates a filter applies to.
type FilterTarget int

const (
	FilterDatasets FilterTarget = 1 << iota
	FilterCatalogs
	FilterBoth = FilterDatasets | FilterCatalogs
)

// passes reports whether id passes every filter. No filters pass everything.
func passes(filters []Filter, id string) bool {
	for _, f := range filters {
		if !f.Test(id) {
			return false
		}
	}
	return true
}
