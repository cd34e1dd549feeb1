// Package match implements the structural comparator behind match steps and
// assertion chains. Compare walks actual and expected depth-first, stops at
// the first mismatch, and reports it with a $-rooted path. Expected strings
// starting with '#' are marker predicates (#string, #uuid, #regex ... and
// friends) instead of literal values.
package match
