package web

// SessionSummary is one live session on the landing page.
type SessionSummary struct {
	Code    string
	Phase   string
	Players int
}
