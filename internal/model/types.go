package model

import "time"

// ListType distinguishes deny lists (blocked traffic) from safe lists
// (allow-list exceptions carved out of deny lists).
type ListType string

const (
	ListTypeDeny ListType = "DENY"
	ListTypeSafe ListType = "SAFE"
)

// JobAction identifies the kind of mutation a queued job performs.
type JobAction string

const (
	JobActionAdd    JobAction = "add"
	JobActionDelete JobAction = "delete"
	JobActionUpdate JobAction = "update"
)

// List is a named collection of CIDRs of a single ListType, strictly scoped
// to the user that owns it.
type List struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Type        ListType  `json:"listType"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CidrRow is a single stored network within a list.
type CidrRow struct {
	ID        int64      `json:"id"`
	Address   string     `json:"address"`
	ListID    string     `json:"listId"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CidrByVersion splits a set of address strings by IP version, mirroring
// the read-path's version-segmented response shape.
type CidrByVersion struct {
	IPv4 []string `json:"ipv4"`
	IPv6 []string `json:"ipv6"`
}

// CidrJob is the payload stored in job_queue.payload and dispatched to the
// worker. TTL is only meaningful for JobActionAdd and is the number of
// seconds an inserted CIDR should live before expiry; nil means no expiry.
type CidrJob struct {
	JobID       string    `json:"job_id"`
	ListID      string    `json:"list_id"`
	ListType    ListType  `json:"list_type"`
	ListEnabled bool      `json:"list_enabled"`
	UserID      string    `json:"user_id"`
	Action      JobAction `json:"action"`
	Cidrs       []string  `json:"cidrs"`
	TTL         *int64    `json:"ttl,omitempty"`
}

// JobQueueRow is a row dequeued from job_queue.
type JobQueueRow struct {
	ID        int64
	JobID     string
	Payload   CidrJob
	Attempts  int
	CreatedAt time.Time
}

// ParseSummary reports the outcome of ingesting a batch of raw CIDR text,
// mirroring the reference worker's per-job counters.
type ParseSummary struct {
	TotalJobs int `json:"totalJobs"`
	Malformed int `json:"malformed"`
	NonGlobal int `json:"nonGlobal"`
	Accepted  int `json:"accepted"`
}

// UserRole distinguishes ordinary API users from superusers, who may
// provision further accounts.
type UserRole string

const (
	UserRoleUser      UserRole = "USER"
	UserRoleSuperuser UserRole = "SUPERUSER"
)

// User is an authenticated API principal.
type User struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CidrQuery parameterizes a read-path lookup over stored CIDRs. UserID
// scopes every query to the caller's own lists: CIDRs have no cross-user
// visibility.
type CidrQuery struct {
	UserID   string
	ListType ListType
	ListID   string
	Tags     []string
	Collapse bool
	// Cursor, when >0, restricts results to rows with id strictly less than
	// it — the descending keyset-pagination cursor from the previous page's
	// last row, mirroring the reference SELECT_BY_ID_PAGINATED statement.
	Cursor int64
	Limit  int
}
