package gc

import "errors"

var (
	errUnknownOID        = errors.New("gc: mark phase encountered a reference to an unknown oid")
	errNoHandler         = errors.New("gc: no type handler registered for entity's tid")
	errMarkingIncomplete = errors.New("gc: sweep attempted before this channel finished marking")
	errRootInconsistent  = errors.New("gc: post-sweep consistency check found a root missing or not black")
)
