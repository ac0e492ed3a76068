package pipeline

import "sort"

// Set is an inclusion set of string keys
type Set map[string]struct{}

// NewSet creates a set holding the given keys
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Set adds or removes key depending on included
func (s Set) Set(key string, included bool) {
	if included {
		s[key] = struct{}{}
		return
	}
	delete(s, key)
}

// Clone returns an independent copy
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Keys returns the members in sorted order
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
