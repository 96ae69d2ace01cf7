package whoami

import (
	"time"

	"github.com/spiffe/peercred/pkg/common/peercred"
)

// Path is the route of the whoami API.
const Path = "/v1/whoami"

// RequestIDHeader carries the id the agent assigned to a request.
const RequestIDHeader = "X-Request-Id"

// Response describes the caller of a request as recorded by the kernel.
type Response struct {
	UID       uint32       `json:"uid"`
	GID       uint32       `json:"gid"`
	PID       peercred.PID `json:"pid"`
	Groups    []uint32     `json:"groups,omitempty"`
	Mechanism string       `json:"mechanism"`
	Process   *Process     `json:"process,omitempty"`
}

// Process holds details of the calling process. It is only present when the
// agent is configured to include it and the pid is known.
type Process struct {
	Name       string    `json:"name"`
	CreateTime time.Time `json:"create_time"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Error string `json:"error"`
}
