package port

import "context"

// ClipEncoder turns a renumbered image sequence into one video clip. The
// encoder is an external process; failure means the clip is absent, nothing
// more.
type ClipEncoder interface {
	EncodeSequence(ctx context.Context, sequencePattern string, fps int, outputPath string) error
}
