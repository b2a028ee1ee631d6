package ui

// DownloadStartMsg is sent when a transfer begins.
type DownloadStartMsg struct {
	Name  string
	Total int64
}

// DownloadProgressMsg reports bytes received so far.
type DownloadProgressMsg struct {
	Written int64
	Total   int64
	Detail  string
}

// DownloadDoneMsg is sent when a transfer ends, successfully or not.
type DownloadDoneMsg struct {
	Err error
}

// Percent returns the completed fraction, 0 when the size is unknown.
func (m DownloadProgressMsg) Percent() float64 {
	if m.Total <= 0 {
		return 0
	}
	p := float64(m.Written) / float64(m.Total)
	if p > 1 {
		return 1
	}
	return p
}
