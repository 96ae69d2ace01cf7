package telemetry

// Constants for metric keys and labels. Helps with enforcement of non-conflicting usage of same or similar names.
// Additionally, importers of this package can get an idea of metric tags to look for.
// The attribute names double as structured log field keys.

// Action metric tags or labels that are typically a specific action
const (
	// Accept functionality related to accepting a connection; should be used
	// with other tags to add clarity
	Accept = "accept"

	// Check functionality related to a health check
	Check = "check"

	// Lookup functionality related to looking up details of some entity;
	// should be used with other tags to add clarity
	Lookup = "lookup"

	// Query functionality related to querying the kernel or an API; should be
	// used with other tags to add clarity
	Query = "query"
)

// Attribute metric tags or labels that are typically an attribute of a
// larger entity or logic path
const (
	// Address tags some network or socket address
	Address = "address"

	// CallerGID tags the gid of an API caller
	CallerGID = "caller_gid"

	// CallerPID tags the pid of an API caller
	CallerPID = "caller_pid"

	// CallerUID tags the uid of an API caller
	CallerUID = "caller_uid"

	// ElapsedTime tags some duration of time. Reserved for use in telemetry package on
	// call counters. Exported for tests only.
	ElapsedTime = "elapsed_time"

	// Error tag for some error that occurred
	Error = "error"

	// GID tags a group id
	GID = "gid"

	// Mechanism tags the kernel interface used to read peer credentials
	Mechanism = "mechanism"

	// Method tags an RPC or HTTP method
	Method = "method"

	// Network tags a network type, such as "unix"
	Network = "network"

	// Outcome tags the result class of an operation
	Outcome = "outcome"

	// Path tags a file system or URL path
	Path = "path"

	// PID tags a process id
	PID = "pid"

	// Reason is the reason for something
	Reason = "reason"

	// RequestID tags the id assigned to an API request
	RequestID = "request_id"

	// Status tags status of call (OK, or some error), or status of some process
	Status = "status"

	// SubsystemName declares field for some subsystem name (an API, module...)
	SubsystemName = "subsystem_name"

	// UID tags a user id
	UID = "uid"
)

// Entity metric tags or labels that are typically an entity or
// module in their own right, rather than descriptive of other
// entities or modules
const (
	// AdminAPI functionality related to the admin gRPC API
	AdminAPI = "admin_api"

	// Listener functionality related to a peer tracking listener
	Listener = "listener"

	// PeerCred functionality related to peer credential queries
	PeerCred = "peercred"

	// Process functionality related to some local process
	Process = "process"

	// RateLimit functionality related to request rate limiting
	RateLimit = "rate_limit"

	// WhoAmIAPI functionality related to the whoami HTTP API
	WhoAmIAPI = "whoami_api"
)

// Outcome values used with the Outcome label
const (
	OutcomeSuccess      = "success"
	OutcomeNotASocket   = "not_a_socket"
	OutcomeNotConnected = "not_connected"
	OutcomeUnsupported  = "unsupported"
	OutcomeError        = "error"
)
