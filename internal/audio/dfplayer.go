package audio

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// port is the part of a serial port the module needs.
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// DFPlayer drives a DFPlayer Mini compatible module over a serial port.
type DFPlayer struct {
	port  port
	sleep func(time.Duration)
}

// OpenDFPlayer opens the serial port at the module's fixed 9600 8N1.
func OpenDFPlayer(name string) (*DFPlayer, error) {
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: DefaultBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	return newDFPlayer(p), nil
}

func newDFPlayer(p port) *DFPlayer {
	return &DFPlayer{port: p, sleep: time.Sleep}
}

var errNotReady = errors.New("audio: module did not report ready")

// Begin resets the module and waits for the init report that follows the
// reboot. The ack to the reset command only means the frame was received;
// the module is ready once it reports a storage device online.
func (d *DFPlayer) Begin(timeout time.Duration) error {
	if err := d.send(frame{cmd: cmdReset, feedback: true}); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		f, err := d.readFrame(time.Until(deadline))
		if err != nil {
			if errors.Is(err, errBadFrame) {
				continue
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return errNotReady
			}
			return fmt.Errorf("audio: wait for module: %w", err)
		}
		switch f.cmd {
		case replyAck:
			continue
		case replyInit:
			if f.param&storageMask == 0 {
				return fmt.Errorf("audio: no storage online (init %#x)", f.param)
			}
			// The module drops commands sent straight after its init report.
			d.sleep(InitSettle)
			return nil
		case replyError:
			return fmt.Errorf("audio: module reported error %d", f.param)
		}
	}
	return errNotReady
}

// Stop stops playback.
func (d *DFPlayer) Stop() error {
	return d.send(frame{cmd: cmdStop})
}

// Play starts track (1-based).
func (d *DFPlayer) Play(track int) error {
	if track < 1 || track > 0xFFFF {
		return fmt.Errorf("audio: track %d out of range", track)
	}
	return d.send(frame{cmd: cmdPlayTrack, param: uint16(track)})
}

// Volume sets the output level.
func (d *DFPlayer) Volume(level int) error {
	return d.send(frame{cmd: cmdVolume, param: uint16(clampVolume(level))})
}

// Close releases the serial port.
func (d *DFPlayer) Close() error {
	return d.port.Close()
}

func (d *DFPlayer) send(f frame) error {
	if _, err := d.port.Write(f.encode()); err != nil {
		return fmt.Errorf("audio: write command %02x: %w", f.cmd, err)
	}
	return nil
}

// readFrame reads bytes until a start marker, then the rest of one frame.
func (d *DFPlayer) readFrame(timeout time.Duration) (frame, error) {
	if err := d.port.SetReadTimeout(timeout); err != nil {
		return frame{}, err
	}
	buf := make([]byte, frameSize)
	one := buf[:1]
	for {
		n, err := d.port.Read(one)
		if err != nil {
			return frame{}, err
		}
		if n == 0 {
			return frame{}, io.ErrUnexpectedEOF
		}
		if one[0] == frameStart {
			break
		}
	}
	for got := 1; got < frameSize; {
		n, err := d.port.Read(buf[got:])
		if err != nil {
			return frame{}, err
		}
		if n == 0 {
			return frame{}, io.ErrUnexpectedEOF
		}
		got += n
	}
	return decodeFrame(buf)
}
