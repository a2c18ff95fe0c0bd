package emu

import "testing"

func TestMFP_ResetState(t *testing.T) {
	m := NewMFP68901()

	if got := m.ReadRegister(mfpGPIP); got != 0xFF {
		t.Errorf("expected GPIP 0xFF after reset, got 0x%02X", got)
	}
	if got := m.ReadRegister(mfpVR); got != 0x40 {
		t.Errorf("expected VR 0x40 after reset, got 0x%02X", got)
	}
	if got := m.ReadRegister(mfpAER); got != 0 {
		t.Errorf("expected AER 0 after reset, got 0x%02X", got)
	}
}

func TestMFP_TimerDOneShot(t *testing.T) {
	m := NewMFP68901()

	// Timer D: prescaler 200 (mode 7), reload 246. One period is
	// 200*246 MFP ticks = 49200/2457600 s = 20.0 ms, which is
	// 160156 CPU cycles at 8 MHz.
	m.WriteRegister(mfpIERB, 0x10)
	m.WriteRegister(mfpIMRB, 0x10)
	m.WriteRegister(mfpTDDR, 246)
	m.WriteRegister(mfpTCDCR, 0x07)

	m.Sync(160000)
	if got := m.ReadRegister(mfpIPRB); got&0x10 != 0 {
		t.Error("timer D fired before one full period")
	}

	m.Sync(1000)
	if got := m.ReadRegister(mfpIPRB); got&0x10 == 0 {
		t.Error("timer D did not fire after one full period")
	}

	// Clear and make sure the second period is as long as the first
	m.WriteRegister(mfpIPRB, ^byte(0x10))
	m.Sync(155000)
	if got := m.ReadRegister(mfpIPRB); got&0x10 != 0 {
		t.Error("timer D refired too early")
	}
	m.Sync(6000)
	if got := m.ReadRegister(mfpIPRB); got&0x10 == 0 {
		t.Error("timer D did not refire after its second period")
	}
}

func TestMFP_TimerInterruptCount(t *testing.T) {
	m := NewMFP68901()

	// Timer C: prescaler 64 (mode 5), reload 100.
	m.WriteRegister(mfpIERB, 0x20)
	m.WriteRegister(mfpIMRB, 0x20)
	m.WriteRegister(mfpTCDR, 100)
	m.WriteRegister(mfpTCDCR, 0x50)

	const cycles = 8000000 // one second of CPU time
	fired := 0
	for i := 0; i < cycles/1000; i++ {
		m.Sync(1000)
		if m.ReadRegister(mfpIPRB)&0x20 != 0 {
			fired++
			m.WriteRegister(mfpIPRB, ^byte(0x20))
		}
	}

	want := mfpClockHz / (64 * 100) // 384
	if fired < want-1 || fired > want+1 {
		t.Errorf("expected %d +- 1 timer C interrupts in one second, got %d", want, fired)
	}
}

func TestMFP_EventCountMode(t *testing.T) {
	m := NewMFP68901()

	m.WriteRegister(mfpIERA, 0x01)
	m.WriteRegister(mfpIMRA, 0x01)
	m.WriteRegister(mfpTBDR, 3)
	m.WriteRegister(mfpTBCR, 0x08)

	// The divide-by-8000000 path must not tick an event-count timer
	m.Sync(1000000)
	if m.ReadRegister(mfpIPRA)&0x01 != 0 {
		t.Fatal("event-count timer ticked from Sync")
	}

	m.EventCountB()
	m.EventCountB()
	if m.ReadRegister(mfpIPRA)&0x01 != 0 {
		t.Fatal("timer B fired before its count was reached")
	}
	m.EventCountB()
	if m.ReadRegister(mfpIPRA)&0x01 == 0 {
		t.Fatal("timer B did not fire on its third event")
	}
}

func TestMFP_GPIPEdges(t *testing.T) {
	m := NewMFP68901()

	// Default AER=0: falling edges raise the channel. GPIP4 is the
	// ACIA line on channel 6 (bank B bit 6).
	m.WriteRegister(mfpIERB, 0x40)
	m.WriteRegister(mfpIMRB, 0x40)

	m.SetGPIPInput(4, false)
	if m.ReadRegister(mfpIPRB)&0x40 == 0 {
		t.Fatal("falling edge on GPIP4 did not raise the ACIA channel")
	}

	m.WriteRegister(mfpIPRB, ^byte(0x40))
	m.SetGPIPInput(4, true)
	if m.ReadRegister(mfpIPRB)&0x40 != 0 {
		t.Fatal("rising edge raised the channel with AER=0")
	}

	// AER bit set: now the rising edge triggers
	m.WriteRegister(mfpAER, 0x10)
	m.SetGPIPInput(4, false)
	m.WriteRegister(mfpIPRB, ^byte(0x40))
	m.SetGPIPInput(4, true)
	if m.ReadRegister(mfpIPRB)&0x40 == 0 {
		t.Fatal("rising edge did not raise the channel with AER set")
	}
}

func TestMFP_IRQLineAndAcknowledge(t *testing.T) {
	m := NewMFP68901()

	var line bool
	m.SetIRQHandler(func(asserted bool) { line = asserted })

	m.WriteRegister(mfpVR, 0x40)
	m.WriteRegister(mfpIERB, 0x40)
	m.WriteRegister(mfpIMRB, 0x40)

	m.SetGPIPInput(4, false)
	if !line {
		t.Fatal("IRQ line not asserted for pending enabled channel")
	}

	// Channel 6 with vector base 0x40
	if vec := m.Acknowledge(); vec != 0x46 {
		t.Errorf("expected vector 0x46, got 0x%02X", vec)
	}
	if line {
		t.Error("IRQ line still asserted after acknowledge")
	}
}

func TestMFP_SoftwareEOIBlocksLowerChannels(t *testing.T) {
	m := NewMFP68901()

	var line bool
	m.SetIRQHandler(func(asserted bool) { line = asserted })

	// Software end-of-interrupt mode, ACIA (6) and FDC (7) enabled
	m.WriteRegister(mfpVR, 0x48)
	m.WriteRegister(mfpIERB, 0xC0)
	m.WriteRegister(mfpIMRB, 0xC0)

	m.SetGPIPInput(5, false)
	if vec := m.Acknowledge(); vec != 0x47 {
		t.Fatalf("expected FDC vector 0x47, got 0x%02X", vec)
	}

	// While channel 7 is in service, channel 6 must not win the line
	m.SetGPIPInput(4, false)
	if line {
		t.Fatal("lower channel asserted IRQ during higher in-service")
	}

	// Handler clears its in-service bit, the lower channel comes through
	m.WriteRegister(mfpISRB, ^byte(0x80))
	if !line {
		t.Fatal("pending lower channel did not assert after EOI")
	}
	if vec := m.Acknowledge(); vec != 0x46 {
		t.Errorf("expected ACIA vector 0x46, got 0x%02X", vec)
	}
}

func TestMFP_SpuriousAcknowledge(t *testing.T) {
	m := NewMFP68901()

	if vec := m.Acknowledge(); vec != mfpSpuriousVector {
		t.Errorf("expected spurious vector 0x18, got 0x%02X", vec)
	}
}

func TestMFP_DisablingChannelDropsPending(t *testing.T) {
	m := NewMFP68901()

	m.WriteRegister(mfpIERB, 0x40)
	m.WriteRegister(mfpIMRB, 0x40)
	m.SetGPIPInput(4, false)
	if m.ReadRegister(mfpIPRB)&0x40 == 0 {
		t.Fatal("channel did not raise")
	}

	m.WriteRegister(mfpIERB, 0x00)
	if m.ReadRegister(mfpIPRB)&0x40 != 0 {
		t.Error("pending bit survived channel disable")
	}
}
