// Package pipeline runs a crawl as an ordered list of steps.
//
// The default crawl pipeline is:
//
//	fetch -> flatten -> archive -> write
//
// Every step receives the same *model.Run and records its results there.
// A step ends the run early by returning ErrHalt (the run outcome is
// already recorded and the process exits normally) or a *FatalError (the
// dimension file may be in an unknown state and the process must exit
// with a non-zero status).
//
// Steps run strictly one after another on the calling goroutine. Nothing
// touches the file system before the flatten step has completed.
package pipeline
