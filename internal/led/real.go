package led

import (
	"fmt"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// SPIStrip drives WS2812-class pixels through an SPI port using NRZ encoding.
type SPIStrip struct {
	*Buffer
	port spi.PortCloser
	dev  *nrzled.Dev
}

// NewSPIStrip opens the SPI port (empty name = first available) and
// returns a cleared strip of n pixels.
func NewSPIStrip(portName string, n int, brightness uint8) (*SPIStrip, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", portName, err)
	}

	opts := nrzled.DefaultOpts
	opts.NumPixels = n
	opts.Channels = 3
	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("init led strip: %w", err)
	}

	return &SPIStrip{
		Buffer: NewBuffer(n, brightness),
		port:   port,
		dev:    dev,
	}, nil
}

// Show writes the scaled frame to the strip.
func (s *SPIStrip) Show() error {
	if _, err := s.dev.Write(s.RGBBytes()); err != nil {
		return fmt.Errorf("write led frame: %w", err)
	}
	return nil
}

// Close turns the strip off and releases the SPI port.
func (s *SPIStrip) Close() error {
	var errs []error
	if err := s.dev.Halt(); err != nil {
		errs = append(errs, fmt.Errorf("halt strip: %w", err))
	}
	if err := s.port.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close spi port: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
