package models

import "time"

// RequestStatus of an access request. Only pending is ever written; the
// list is an informational log for the parent.
type RequestStatus string

const (
	RequestPending RequestStatus = "pending"
)

// MaxAccessRequests bounds the stored request log
const MaxAccessRequests = 50

// AccessRequest is a child's request to unblock a page
type AccessRequest struct {
	ID       string        `json:"id"`
	Ts       time.Time     `json:"ts"`
	URL      string        `json:"url,omitempty"`
	Domain   string        `json:"domain,omitempty"`
	Category string        `json:"category,omitempty"`
	Status   RequestStatus `json:"status"`
}

// PrependRequest adds req at the head of list, keeping at most limit entries
func PrependRequest(list []AccessRequest, req AccessRequest, limit int) []AccessRequest {
	if limit <= 0 {
		limit = MaxAccessRequests
	}
	out := make([]AccessRequest, 0, min(len(list)+1, limit))
	out = append(out, req)
	for _, r := range list {
		if len(out) >= limit {
			break
		}
		out = append(out, r)
	}
	return out
}
