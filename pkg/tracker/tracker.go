// Package tracker contains the core domain types for the job-application
// email tracking service.
package tracker

// EmailRecord is the normalized form of one fetched message. It is built
// once per message and never mutated afterwards.
type EmailRecord struct {
	ID      string `json:"id"`      // Gmail message ID
	Subject string `json:"subject"` // Subject header
	From    string `json:"from"`    // From header
	Date    string `json:"date"`    // Raw RFC 2822 Date header value
	Body    string `json:"body"`    // Plain text body, possibly empty
}

// Signal is the structured outcome of classifying one email as
// job-application relevant. A nil *Signal means the email was judged
// unrelated to any application process.
type Signal struct {
	JobTitle  string `json:"job_title"`
	Company   string `json:"company"`
	Applied   bool   `json:"applied_date"`  // message announces an application
	Responded bool   `json:"response_date"` // message is a rejection or offer
	Status    string `json:"status"`
}

// Statuses the classifier is asked to produce. Anything else it emits is
// carried through as an opaque string.
const (
	StatusApplied  = "Applied"
	StatusRejected = "Rejected"
	StatusOffered  = "Offered"
)
