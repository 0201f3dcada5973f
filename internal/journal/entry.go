package journal

// TimestampFormat is the layout used in entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Entry is one line in the hash-chained JSONL journal. Fields are plain
// values so json.Marshal output is deterministic for hashing.
type Entry struct {
	Timestamp string `json:"ts"`
	RunID     string `json:"run_id"`
	Project   string `json:"project"`
	Scenario  string `json:"scenario"`
	Event     string `json:"event"`
	Step      string `json:"step,omitempty"`
	Index     int    `json:"index,omitempty"`
	Error     string `json:"error,omitempty"`
	Path      string `json:"path,omitempty"`
	PrevHash  string `json:"prev_hash"`
}
