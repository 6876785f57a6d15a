package classify

import (
	"encoding/json"
	"regexp"
	"strings"

	"jobtrack/pkg/tracker"
)

// fencedJSON matches the first markdown-fenced JSON object in a response.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Parse interprets the model's textual judgment. The model is untrusted:
// output that is not valid JSON, or that does not claim a job-application
// process, yields nil rather than an error so one garbled response never
// aborts the batch.
func Parse(content string) *tracker.Signal {
	content = strings.TrimSpace(content)

	if strings.Contains(content, "```") {
		if m := fencedJSON.FindStringSubmatch(content); m != nil {
			content = m[1]
		}
	}

	var judged struct {
		Process   bool   `json:"process"`
		JobTitle  string `json:"job_title"`
		Company   string `json:"company"`
		Applied   bool   `json:"applied_date"`
		Responded bool   `json:"response_date"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal([]byte(content), &judged); err != nil {
		return nil
	}
	if !judged.Process {
		return nil
	}

	// Status is carried through as-is, including values outside the
	// expected set.
	return &tracker.Signal{
		JobTitle:  judged.JobTitle,
		Company:   judged.Company,
		Applied:   judged.Applied,
		Responded: judged.Responded,
		Status:    judged.Status,
	}
}
