package classify

import "fmt"

// promptTemplate asks for a bare JSON judgment so the response can be parsed
// without conversational trimmings. The model does not always comply; Parse
// tolerates fenced output anyway.
const promptTemplate = `You are analyzing an email to determine if it's related to a job application process.

Job-related emails include:
- Application confirmations
- Interview invitations or scheduling
- Rejection notifications
- Offer letters
- Application status updates
- Requests for additional information
- Any communication from a company's recruiting/HR team about a job application

Email content:
"""
%s
"""

Instructions:
1. If this email is NOT related to a job application process, return exactly: {"process": false}.
Any promotions related email will also be classified as such. This includes emails such as we've found the right fit, your background might be a good fit and new match for jobs.
2. If this email IS related to a job application process, return valid JSON with these fields:
   - process: true
   - job_title: the position title mentioned (or "Not specified" if unclear)
   - company: the company name
   - applied_date: true for this field if this is an application notification
   - response_date: true for this field if this is a rejection or offer
   - status: one of "Applied", "Rejected", "Offered"

Return only valid JSON, no additional text or formatting.`

// buildPrompt embeds the message body verbatim into the classification prompt.
func buildPrompt(body string) string {
	return fmt.Sprintf(promptTemplate, body)
}
