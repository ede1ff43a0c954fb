package mqtt

import "log"

// pendingMsg is a serialized message held while the broker is unreachable.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog keeps the most recent messages published while disconnected.
// When full the oldest message is discarded.
// Not safe for concurrent use; caller must synchronize.
type backlog struct {
	msgs    []pendingMsg
	limit   int
	dropped int
}

func newBacklog(limit int) *backlog {
	return &backlog{limit: limit}
}

func (b *backlog) add(m pendingMsg) {
	if len(b.msgs) == b.limit {
		if b.dropped == 0 {
			log.Printf("mqtt: backlog full (%d messages), dropping oldest", b.limit)
		}
		b.dropped++
		copy(b.msgs, b.msgs[1:])
		b.msgs[len(b.msgs)-1] = m
		return
	}
	b.msgs = append(b.msgs, m)
}

// take returns the queued messages oldest first and empties the backlog.
func (b *backlog) take() []pendingMsg {
	if len(b.msgs) == 0 {
		return nil
	}
	out := b.msgs
	b.msgs = nil
	if b.dropped > 0 {
		log.Printf("mqtt: %d messages were dropped while disconnected", b.dropped)
		b.dropped = 0
	}
	return out
}

func (b *backlog) len() int {
	return len(b.msgs)
}
