package ems

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Demo is a simulated ECU for development without hardware. It models a
// simple engine (idle/rev cycling, warmup, oil pressure tracking RPM) and
// emits genuine wire frames — header, version, rotating slow selector,
// CRC16 — through the real parser at the nominal 50 Hz frame rate, so the
// whole decode path is exercised, not bypassed.
type Demo struct {
	dec *Decoder

	t      float64 // virtual time, seconds
	slowID uint8   // rotating slow record selector

	rpm     float64
	clt     float64
	oilT    float64
	voltage float64
}

// NewDemo creates the simulated provider targeting dec.
func NewDemo(dec *Decoder) *Demo {
	return &Demo{
		dec:     dec,
		clt:     20,
		oilT:    20,
		voltage: 13.8,
	}
}

func (p *Demo) Name() string   { return "Demo (Simulated)" }
func (p *Demo) Connect() error { return nil }
func (p *Demo) Close() error   { return nil }

// Run emits one frame every 20 ms until ctx is done.
func (p *Demo) Run(ctx context.Context) error {
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			p.step(0.02)
			p.dec.FeedBytes(p.buildFrame())
		}
	}
}

// step advances the engine model by dt seconds.
func (p *Demo) step(dt float64) {
	p.t += dt

	// RPM cycles between idle and revving
	s := math.Sin(p.t * 0.3)
	p.rpm = 850 + 5200*s*s + rand.Float64()*40

	// Coolant warms toward 90 C, oil lags ~10 C behind
	p.clt += (90 - p.clt) * 0.002
	p.oilT += (p.clt + 10 - p.oilT) * 0.001

	p.voltage = 13.8 + rand.Float64()*0.3
}

func (p *Demo) tps() float64 {
	tps := (p.rpm - 850) / (6000 - 850) * 100
	return math.Max(0, math.Min(100, tps))
}

// buildFrame serializes the current engine state into one complete wire
// frame, rotating the slow record selector each call.
func (p *Demo) buildFrame() []byte {
	tps := p.tps()
	mapKpa := 30 + tps/100*170
	lambda := 1.0 - tps/100*0.15
	injMs := 2.0 + tps/100*10
	ignDeg := 10 + tps/100*25
	speed := tps / 100 * 220

	body := make([]byte, 35)
	body[0] = 1 // packet type
	body[1] = 4 // runlevel: running
	putI16(body, 2, int16(ignDeg/0.25))
	body[4] = byte(tps / 100 * 60) // fuel flow, 1/16 units
	period := uint16(0)
	if p.rpm > 0 {
		period = uint16(10000000 / p.rpm)
	}
	putU16(body, 5, period)
	putU16(body, 7, uint16(injMs/0.004))
	body[9] = 15 // knock ~0.3 V in 5/256 steps
	body[10] = byte(tps * 255 / 100)
	body[11] = byte(tps * 255 / 100) // DBW tracks pedal
	body[12] = byte(mapKpa / 2)
	body[13] = byte(lambda * 128)
	body[14] = 4 // cylinder
	body[15] = 0 // transient corr
	body[16] = byte(speed)
	// body[17..22]: per-cylinder diagnostics, left zero

	body[23] = p.slowID
	p.fillSlow(p.slowID, body[24:35])
	p.slowID = (p.slowID + 1) % slowRecordCount

	return appendFrame(nil, body)
}

// fillSlow writes the 11-byte slow record for the given selector.
func (p *Demo) fillSlow(id uint8, s []byte) {
	tps := p.tps()
	switch id {
	case 0: // corrections & electrical
		s[1] = 121 // lambda target ~0.95 in 1/128 steps
		putU16(s, 4, 300)       // fuel pressure kPa
		s[6] = 3                // dwell ms
		s[7] = byte(p.voltage / 0.1)
		s[8] = byte(int8(1 + tps/100*4)) // gear
		s[9] = byte(tps * 255 / 100)
		s[10] = 128 // second lambda 1.00
	case 1: // flags & boost
		s[5] = byte(30 * 256 / 100) // idle valve
		putU16(s, 6, uint16(p.rpm/6000*400))
		s[8] = byte(tps / 100 * 80)
		s[9] = byte(tps / 100 * 90)
	case 2: // injection details
		s[2] = byte(tps / 100 * 85) // inj duty
		putI16(s, 3, 900)           // lag time
		s[10] = byte(100 / 2)       // back pressure
	case 3: // VVT & traction
		s[2] = byte(int8(tps / 100 * 40))
		s[3] = byte(int8(tps / 100 * 40))
	case 4: // trip computer
		putU16(s, 0, uint16(p.t/60*12)) // fuel used, 0.01 L
		putU16(s, 2, uint16(p.t/3.6))   // path, 0.1 km
		putU16(s, 4, uint16(80+tps))    // inst cons, 0.1 L/100km
		putU16(s, 6, 95)
		s[8] = byte(10 * 256 / 100) // ethanol %
	case 5: // raw ADC
		s[0] = byte(tps * 255 / 100)
		s[1] = 140
		s[2] = 120
		s[5] = byte(tps * 255 / 100)
	case 6: // analog inputs
		for i := 0; i < 10; i++ {
			s[i] = byte(50 + i*10)
		}
	case 7: // I/O state
		s[0] = 0x03
		putU16(s, 1, 0x0105)
		s[8] = byte(40 + rand.Float64()*2) // fuel level
	case 8: // temperatures & pressures
		s[0] = byte(int8(p.clt))
		s[1] = byte(int8(25 + tps/100*30))
		s[2] = byte(p.oilT)
		s[3] = byte(int8(20))
		putU16(s, 5, uint16(500+tps/100*300)) // EGT1
		putU16(s, 7, uint16(490+tps/100*300)) // EGT2
		oilP := 1.0 + p.rpm/6000*4
		s[9] = byte(oilP / 0.1)
	case 9: // PWM duties
		for i := 0; i < 6; i++ {
			s[i] = byte(tps / 100 * 256 / 2)
		}
	}
}

func putU16(s []byte, off int, v uint16) {
	s[off] = byte(v)
	s[off+1] = byte(v >> 8)
}

func putI16(s []byte, off int, v int16) {
	putU16(s, off, uint16(v))
}
