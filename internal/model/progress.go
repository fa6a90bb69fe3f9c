package model

// ProgressStatus labels a single progress event during one fetch attempt.
type ProgressStatus string

const (
	ProgressStatusStarting    ProgressStatus = "starting"
	ProgressStatusDownloading ProgressStatus = "downloading"
	ProgressStatusFinished    ProgressStatus = "finished"
)

// DownloadProgress is a transient event emitted repeatedly while a download
// attempt runs. Events are not retained after the attempt ends.
type DownloadProgress struct {
	Status   ProgressStatus
	Percent  float64 // 0 to 100
	Speed    string  // human readable, e.g. "1.2 MB/s"
	ETA      string  // human readable, e.g. "42s"
	Filename string
}
