package telemetry

import (
	"errors"

	"github.com/spiffe/peercred/pkg/common/peercred"
)

// IncrPeerCredQuery counts one peer credential query.
func IncrPeerCredQuery(m Metrics, mechanism, outcome string) {
	m.IncrCounterWithLabels([]string{PeerCred, Query}, 1, []Label{
		{Name: Mechanism, Value: mechanism},
		{Name: Outcome, Value: outcome},
	})
}

// PeerCredOutcome maps the result of a peer credential query to an Outcome
// label value.
func PeerCredOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, peercred.ErrNotASocket):
		return OutcomeNotASocket
	case errors.Is(err, peercred.ErrNotConnected):
		return OutcomeNotConnected
	case errors.Is(err, peercred.ErrUnsupported):
		return OutcomeUnsupported
	default:
		return OutcomeError
	}
}
