package domain

// MirrorState is the per-product state of a media mirror run:
// pending -> downloading -> {mirrored | failed | skipped}.
type MirrorState string

const (
	MirrorStatePending     MirrorState = "pending"
	MirrorStateDownloading MirrorState = "downloading"
	MirrorStateMirrored    MirrorState = "mirrored"
	MirrorStateFailed      MirrorState = "failed"
	MirrorStateSkipped     MirrorState = "skipped"
)

// MirrorJobState holds the per-run progress counters of a mirror job. It is
// transient; only the terminal summary outlives the run.
type MirrorJobState struct {
	Total      int `json:"total"`
	Processed  int `json:"processed"`
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}
