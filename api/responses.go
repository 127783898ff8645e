package api

// CheckResponse is the response for an authorization check.
type CheckResponse struct {
	Allowed  bool   `json:"allowed" description:"Whether the requirements are met"`
	Decision string `json:"decision" description:"Decision code"`
	Reason   string `json:"reason,omitempty" description:"Human-readable reason"`
}

// RevokeResponse reports how many sessions were removed.
type RevokeResponse struct {
	Revoked int64 `json:"revoked" description:"Number of sessions deleted"`
}

// ConnectionResponse describes a live connection's current state.
type ConnectionResponse struct {
	ID            string   `json:"id" description:"Connection ID"`
	UserID        string   `json:"user_id,omitempty" description:"Authenticated user ID"`
	Username      string   `json:"username,omitempty" description:"Authenticated username"`
	Methods       []string `json:"methods" description:"Callable methods"`
	Topics        []string `json:"topics" description:"Visible topics"`
	Subscriptions []string `json:"subscriptions" description:"Active subscriptions"`
}
