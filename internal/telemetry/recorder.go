package telemetry

import (
	"fmt"
	"strings"
	"sync"
)

// Report is one call made against a RecorderAPI.
type Report struct {
	Kind   string
	Id     string
	Params []any
}

// RecorderAPI keeps every report in memory so tests can assert that a failure
// was surfaced.
type RecorderAPI struct {
	mutex   *sync.Mutex
	reports *[]Report
}

func NewRecorderAPI() RecorderAPI {
	return RecorderAPI{mutex: &sync.Mutex{}, reports: &[]Report{}}
}

func (r RecorderAPI) record(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	*r.reports = append(*r.reports, Report{Kind: kind, Id: id, Params: params})
}

func (r RecorderAPI) ReportBroken(id string, params ...any) {
	r.record("broken", id, params)
}

func (r RecorderAPI) ReportWarning(id string, params ...any) {
	r.record("warning", id, params)
}

func (r RecorderAPI) ReportDebug(msg string, params ...any) {
	r.record("debug", msg, params)
}

func (r RecorderAPI) ReportCount(id string, count int64) {
	r.record("count", id, []any{count})
}

// Reports returns a copy of every report of the given kind ("broken",
// "warning", "debug", "count") whose id contains idPart.
func (r RecorderAPI) Reports(kind, idPart string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, rep := range *r.reports {
		if rep.Kind == kind && strings.Contains(rep.Id, idPart) {
			out = append(out, rep)
		}
	}
	return out
}

func (r Report) String() string {
	return fmt.Sprintf("%s %s %v", r.Kind, r.Id, r.Params)
}
