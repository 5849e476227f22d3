package fetch

// Task is one file of a replay directory.
type Task struct {
	Match string
	Name  string // e.g. "static.json" or "15.json"
	Step  int    // first step in the shard, -1 for the static document
}

func (t Task) String() string {
	return t.Match + "/" + t.Name
}

type TaskResult struct {
	Task      Task
	Success   bool
	Skipped   bool
	NotFound  bool
	Stored    string // file name written, which may carry the compressed suffix
	BytesSize int64
	Error     error
}
