// Package lifecycle is a small finite state machine used to track the
// lifecycle of a validation context.
//
// A machine is built from an initial state and a set of transitions. Each
// transition may carry guards, which must all pass for it to be taken, and
// actions, which run before the state changes and abort the transition on
// error. When several transitions share a source state and event, the first
// one whose guards pass wins.
//
// NewForm returns the machine every form uses:
//
//	uninitialized --init--> ready --begin--> validating --finish--> idle
//	                                   ^                             |
//	                                   +-----------begin-------------+
//
// Every state except destroyed accepts destroy, and destroyed accepts
// nothing.
package lifecycle
