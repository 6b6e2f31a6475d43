// Package resource provides a process-wide budget for reserved memory and
// worker slots.
//
// A single Controller can be shared by several hunks. Each hunk charges its
// reservation against the memory limit when it is opened and returns it on
// Close; worker sets take a slot for every checked-out worker arena. All
// methods are safe for concurrent use, and a nil *Controller imposes no
// limits.
package resource
