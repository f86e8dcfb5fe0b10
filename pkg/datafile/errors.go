package datafile

import "errors"

var (
	errTruncatedHeader  = errors.New("datafile: truncated record header")
	errUnknownEntryKind = errors.New("datafile: unknown transaction log entry kind")
	errNoHeadFile       = errors.New("datafile: no head file open")
	errUnwritableHead   = errors.New("datafile: head file marked unwritable after a failed append")
)
