package tui

// fetchDoneMsg arrives when the dialog's fetch number seq has settled.
type fetchDoneMsg struct {
	seq int
}

type openErrMsg struct {
	err error
}
