package archiver

import "time"

/*
The manifest is a record of what a snapshot processed. It is written next
to the data files so every snapshot can be verified and audited on its own.
*/

type Manifest struct {
	ID                  string    `json:"id"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	Source              string    `json:"source"`
	NumSourceRecords    int       `json:"num_source_records"`
	NumRecordsProcessed int       `json:"num_records_processed"`
	Files               []string  `json:"files"`
	Completed           bool      `json:"completed"`
}
