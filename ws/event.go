// Package ws is the console's change feed.
//
// Every open dashboard keeps one WebSocket to /ws. When a staff member changes
// something (creates a post, deletes a job, moves an applicant to Accepted),
// the page service broadcasts a change event and other dashboards refetch the
// affected list instead of showing stale rows.
//
//   - Hub: the set of connections, keyed by staff id (several tabs per person)
//   - Client: one connection with its read and write pumps
//   - Event: the frame format, {op, d, seq}
package ws

// Event is one frame on the feed.
//
// Seq increases by one for every outbound event; a gap tells the dashboard it
// missed something and should refetch everything.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client -> server.
const (
	OpHeartbeat = "heartbeat" // sent by the dashboard every 30s
)

// Server -> client.
const (
	OpReady        = "ready"
	OpHeartbeatAck = "heartbeat_ack"
	OpPresence     = "presence_update"
	OpChange       = "change"
)

// Resources named in change events.
const (
	ResourcePosts        = "posts"
	ResourceHirings      = "hirings"
	ResourceApplications = "applications"
	ResourceUsers        = "users"
)

// Actions named in change events.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChangeData is the payload of OpChange. The dashboard refetches Resource;
// ID and Ref let it patch a single row when it already has the list open.
type ChangeData struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	ID       string `json:"id,omitempty"`
	Ref      string `json:"ref,omitempty"`
	// Status is set for application status changes.
	Status string `json:"status,omitempty"`
	By     string `json:"by,omitempty"`
	// Origin is the console instance that made the change. Events relayed from
	// other instances over NATS carry theirs.
	Origin string `json:"origin,omitempty"`
}

// ReadyData is the first frame after connecting.
type ReadyData struct {
	UserID string   `json:"user_id"`
	Online []string `json:"online"`
}

// PresenceData announces a staff member coming online or going offline.
type PresenceData struct {
	UserID string `json:"user_id"`
	Status string `json:"status"` // "online" | "offline"
}
