// Package filesearch lists files under a directory whose names or contents
// match a keyword.
//
// Two interchangeable Searcher implementations exist. Ripgrep shells out to
// the rg binary, the fast path for large trees. Walker walks the tree
// natively and is used when rg is not installed. Both honor the same Limits:
// a per-call timeout, a directory depth bound for content search, a file
// size ceiling, and exclusion lists for dependency/build directories and
// binary media.
//
// A timeout is never an error: the call logs the condition and returns no
// paths with core.OutcomeTimedOut.
package filesearch
