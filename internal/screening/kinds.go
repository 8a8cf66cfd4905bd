package screening

// Artifact kinds accepted by the upload endpoint. They double as the
// kind column values in screening_records.
const (
	KindVideo = "video"
	KindImage = "image"
	KindEEG   = "eeg"
)
