package mqtt

import "github.com/sweeney/beam-target/internal/logic"

// Discard is the Publisher used when no broker is configured.
type Discard struct{}

func (Discard) PublishHit(logic.Hit) error { return nil }

func (Discard) PublishSystem(SystemEvent) error { return nil }

func (Discard) Close() error { return nil }

func (Discard) IsConnected() bool { return false }
