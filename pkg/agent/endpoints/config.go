package endpoints

import (
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spiffe/peercred/pkg/common/telemetry"
)

type Config struct {
	// BindAddr is where the whoami API listens
	BindAddr *net.UnixAddr

	// AdminBindAddr is where the admin API listens
	AdminBindAddr *net.UnixAddr

	Log     logrus.FieldLogger
	Metrics telemetry.Metrics

	// RateLimit is the number of whoami requests allowed per second. Zero
	// disables rate limiting.
	RateLimit float64

	// RateLimitBurst is the number of requests allowed at once. It defaults
	// to RateLimit rounded up.
	RateLimitBurst int

	// IncludeProcessInfo adds details of the calling process to whoami
	// responses.
	IncludeProcessInfo bool
}
