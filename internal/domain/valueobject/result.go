package valueobject

type Action int

const (
	ActionSkip Action = iota
	ActionIssue
	ActionRenew
	ActionCopy
	ActionBackupFailed
	ActionPreflightFailed
	ActionUpload
	ActionInstall
	ActionStatus
)

func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionIssue:
		return "issue"
	case ActionRenew:
		return "renew"
	case ActionCopy:
		return "copy"
	case ActionBackupFailed:
		return "backup failed"
	case ActionPreflightFailed:
		return "preflight failed"
	case ActionUpload:
		return "upload"
	case ActionInstall:
		return "install"
	case ActionStatus:
		return "status"
	default:
		return "unknown"
	}
}

type DomainResult struct {
	Domain  string
	Action  Action
	Message string
	Err     error
}

func (r *DomainResult) Success() bool {
	return r.Err == nil
}

// Report collects the per-domain outcome of one command, in processing order.
type Report struct {
	Command string
	Results []*DomainResult
}

func NewReport(command string) *Report {
	return &Report{Command: command}
}

func (r *Report) Add(result *DomainResult) {
	r.Results = append(r.Results, result)
}

func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Success() {
			n++
		}
	}
	return n
}

func (r *Report) HasFailures() bool {
	return r.Failed() > 0
}

func (r *Report) ByAction(action Action) []*DomainResult {
	var out []*DomainResult
	for _, res := range r.Results {
		if res.Action == action {
			out = append(out, res)
		}
	}
	return out
}
