package natsgath

import (
	"github.com/nats-io/nats.go"
)

// New creates a NATS gatherer that streams result events to the given inbox
// subject.
func New(nc *nats.Conn, correlationId string, inbox string) *natsGatherer {
	return &natsGatherer{
		nc:            nc,
		inbox:         inbox,
		correlationId: correlationId,
	}
}
