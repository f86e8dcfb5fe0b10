package channel

import "errors"

var (
	errChannelInErrorState = errors.New("channel: channel is in the error state")
	errAlreadyRunning      = errors.New("channel: Start called while already running or starting")
	errNotRunning          = errors.New("channel: Stop called while not running")
)
