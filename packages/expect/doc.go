// Package expect provides a fluent assertion chain over the match
// comparator. A chain wraps a subject value; Not and Deep set modifiers for
// the next terminal; terminals return an *AssertionError on failure and
// leave the chain usable for further assertions on the same subject.
package expect
