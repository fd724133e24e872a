package drivers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
)

const (
	pms5003FrameStart1  = 0x42
	pms5003FrameStart2  = 0x4D
	pms5003FrameLen     = 32 // 2 start + 2 length + 26 data + 2 checksum bytes
	pms5003ErrorBackoff = 100 * time.Millisecond
)

// PMS5003 drives a Plantower PMS5003 particulate-matter sensor over UART.
//
// spec.md §5 singles this sensor out: "a single background RX task owns the
// port and the coordinator reads a smoothed snapshot" rather than the
// coordinator performing a blocking read itself, because the PMS5003 pushes
// frames continuously rather than responding to a request. This driver
// models that directly: Enable starts a goroutine that parses frames off the
// port until Disable stops it, and Read is a non-blocking copy of the latest
// value.
type PMS5003 struct {
	port io.ReadWriteCloser

	mu       sync.Mutex
	latest   sensor.Pms5003Reading
	haveData bool
	lastErr  error

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPMS5003(port io.ReadWriteCloser) *PMS5003 {
	return &PMS5003{port: port}
}

func (p *PMS5003) ID() sensor.ID { return sensor.Pms5003 }

func (p *PMS5003) WarmupDuration() time.Duration { return 30 * time.Second }

func (p *PMS5003) Init(ctx context.Context) error { return nil }

func (p *PMS5003) Enable(ctx context.Context) error {
	if p.cancel != nil {
		return nil
	}
	rxCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.receiveLoop(rxCtx)
	return nil
}

func (p *PMS5003) Disable(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.mu.Lock()
	p.haveData = false
	p.lastErr = nil
	p.mu.Unlock()
	return nil
}

func (p *PMS5003) Read(ctx context.Context) (sensor.Reading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.haveData {
		if p.lastErr != nil {
			return nil, sensor.NewError(sensor.KindBusError, "pms5003.read", p.lastErr)
		}
		return nil, sensor.NewError(sensor.KindNoData, "pms5003.read", nil)
	}
	return p.latest, nil
}

func (p *PMS5003) Reset(ctx context.Context) error {
	return sensor.Unsupported("pms5003.reset")
}

func (p *PMS5003) Calibrate(ctx context.Context, arg float64) error {
	return sensor.Unsupported("pms5003.calibrate")
}

// receiveLoop owns the UART port exclusively while enabled, per spec.md §5's
// shared-resource policy. It never touches the shared-state store directly.
func (p *PMS5003) receiveLoop(ctx context.Context) {
	defer close(p.done)
	r := bufio.NewReader(p.port)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		frame, err := readPms5003Frame(r)
		if err != nil {
			p.mu.Lock()
			p.lastErr = err
			p.mu.Unlock()
			// A closed/failing port returns errors immediately and
			// repeatedly; bound the spin until Disable tears the loop down.
			select {
			case <-ctx.Done():
				return
			case <-time.After(pms5003ErrorBackoff):
			}
			continue
		}
		p.mu.Lock()
		p.latest = frame
		p.haveData = true
		p.lastErr = nil
		p.mu.Unlock()
	}
}

func readPms5003Frame(r *bufio.Reader) (sensor.Pms5003Reading, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return sensor.Pms5003Reading{}, err
		}
		if b != pms5003FrameStart1 {
			continue
		}
		b2, err := r.ReadByte()
		if err != nil {
			return sensor.Pms5003Reading{}, err
		}
		if b2 != pms5003FrameStart2 {
			continue
		}
		break
	}
	body := make([]byte, pms5003FrameLen-2)
	if _, err := io.ReadFull(r, body); err != nil {
		return sensor.Pms5003Reading{}, err
	}
	sum := uint16(pms5003FrameStart1) + uint16(pms5003FrameStart2)
	for _, b := range body[:len(body)-2] {
		sum += uint16(b)
	}
	checksum := uint16(body[len(body)-2])<<8 | uint16(body[len(body)-1])
	if sum != checksum {
		return sensor.Pms5003Reading{}, fmt.Errorf("pms5003: checksum mismatch")
	}
	// Standard-particulate (CF=1) fields start at body offset 2.
	u16 := func(i int) float64 {
		return float64(uint16(body[i])<<8 | uint16(body[i+1]))
	}
	return sensor.Pms5003Reading{
		PM1:  u16(2),
		PM25: u16(4),
		PM10: u16(6),
	}, nil
}
