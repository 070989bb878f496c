package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/ib-77/coflow/pkg/flow"
)

type entry struct {
	Index *int   `json:"index,omitempty"`
	Task  string `json:"task,omitempty"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`

	structured bool
	ok         bool
}

func newEntry(index int, task string, r flow.Result[any], structured bool) entry {
	e := entry{Task: task, structured: structured, ok: r.IsSuccess()}
	if index >= 0 {
		e.Index = &index
	}
	if r.IsSuccess() {
		e.Value = r.Result()
	} else if r.Err() != nil {
		e.Error = r.Err().Error()
	}
	return e
}

func (e entry) String() string {
	switch {
	case e.structured && e.ok:
		return fmt.Sprintf("{data: %v}", e.Value)
	case e.structured:
		return fmt.Sprintf("{error: %s}", e.Error)
	case e.ok:
		return fmt.Sprint(e.Value)
	default:
		return e.Error
	}
}

type report struct {
	Aggregator string  `json:"aggregator"`
	Scenario   string  `json:"scenario,omitempty"`
	Tasks      int     `json:"tasks"`
	Failed     bool    `json:"failed"`
	Error      string  `json:"error,omitempty"`
	Results    []entry `json:"results,omitempty"`
	Result     *entry  `json:"result,omitempty"`
	Unused     []entry `json:"unused,omitempty"`
	ElapsedMS  int64   `json:"elapsed_ms"`

	elapsed time.Duration
}

func (r *report) setElapsed(d time.Duration) {
	r.elapsed = d
	r.ElapsedMS = d.Milliseconds()
}

func (r *report) setJoin(names []string, results []flow.Result[any], err error, structured bool) {
	if err != nil {
		r.Failed = true
		r.Error = err.Error()
		return
	}
	r.Results = make([]entry, len(results))
	for i, res := range results {
		r.Results[i] = newEntry(i, names[i], res, structured)
	}
}

func (r *report) setRace(result flow.Result[any], err error, structured bool) {
	if err != nil {
		r.Failed = true
		r.Error = err.Error()
		return
	}
	if result.IsEmpty() {
		return
	}
	e := newEntry(-1, "", result, structured)
	r.Result = &e
}

func (r *report) render(w io.Writer, format string) error {
	if format == "json" {
		if err := json.MarshalWrite(w, r, jsontext.WithIndent("  ")); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}
	return r.renderText(w)
}

func (r *report) renderText(w io.Writer) error {
	status := "succeeded"
	if r.Failed {
		status = "failed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %q: %s in %s (%d tasks)", r.Aggregator, r.Scenario, status, r.elapsed.Round(time.Millisecond), r.Tasks)
	if r.Failed {
		fmt.Fprintf(&b, ": %s", r.Error)
	}
	b.WriteString("\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range r.Results {
		fmt.Fprintf(tw, "  [%d]\t%s\t%s\n", *e.Index, e.Task, e)
	}
	if r.Result != nil {
		fmt.Fprintf(tw, "  result:\t%s\n", r.Result)
	}
	if len(r.Unused) > 0 {
		fmt.Fprintf(tw, "  unused:\n")
		for _, e := range r.Unused {
			fmt.Fprintf(tw, "    -\t%s\n", e)
		}
	}
	return tw.Flush()
}
