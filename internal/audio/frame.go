package audio

import (
	"errors"
	"fmt"
)

// Module commands.
const (
	cmdPlayTrack byte = 0x03
	cmdVolume    byte = 0x06
	cmdReset     byte = 0x0C
	cmdStop      byte = 0x16

	// Replies from the module.
	replyInit  byte = 0x3F
	replyError byte = 0x40
	replyAck   byte = 0x41
)

// Init report storage bits: USB, SD card, PC.
const storageMask uint16 = 0x07

const (
	frameStart   byte = 0x7E
	frameVersion byte = 0xFF
	frameLen     byte = 0x06
	frameEnd     byte = 0xEF
	frameSize         = 10
)

var errBadFrame = errors.New("audio: malformed frame")

// frame is one 10-byte module message:
// 7E FF 06 CMD FB P1 P2 CKH CKL EF.
type frame struct {
	cmd      byte
	feedback bool
	param    uint16
}

func (f frame) encode() []byte {
	buf := []byte{frameStart, frameVersion, frameLen, f.cmd, 0, byte(f.param >> 8), byte(f.param), 0, 0, frameEnd}
	if f.feedback {
		buf[4] = 1
	}
	sum := checksum(buf[1:7])
	buf[7] = byte(sum >> 8)
	buf[8] = byte(sum)
	return buf
}

// checksum is the two's complement of the sum of version..param bytes.
func checksum(b []byte) uint16 {
	var sum uint16
	for _, v := range b {
		sum += uint16(v)
	}
	return -sum
}

func decodeFrame(buf []byte) (frame, error) {
	if len(buf) != frameSize || buf[0] != frameStart || buf[1] != frameVersion ||
		buf[2] != frameLen || buf[9] != frameEnd {
		return frame{}, errBadFrame
	}
	want := checksum(buf[1:7])
	got := uint16(buf[7])<<8 | uint16(buf[8])
	if got != want {
		return frame{}, fmt.Errorf("%w: checksum %04x, want %04x", errBadFrame, got, want)
	}
	return frame{
		cmd:      buf[3],
		feedback: buf[4] != 0,
		param:    uint16(buf[5])<<8 | uint16(buf[6]),
	}, nil
}

func clampVolume(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxVolume {
		return MaxVolume
	}
	return level
}
