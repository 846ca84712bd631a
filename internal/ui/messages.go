package ui

import "cloudclass/internal/job"

type ctrlEventMsg struct {
	Ev job.Event
}

type submitDoneMsg struct {
	Err error
}

type fetchDoneMsg struct {
	Err error
}

type reportSavedMsg struct {
	Path string
	Err  error
}

type downloadDoneMsg struct {
	Path string
	Err  error
}
