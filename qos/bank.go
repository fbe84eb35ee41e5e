// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package qos

import "fmt"

// SetAll writes the given FIX and BE priorities into the inactive bank. Each
// slice must have exactly Profile().Masters() entries. The values take
// effect with the next Switch.
func (d *Device) SetAll(fix, be []uint64) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.initialized() {
		return ErrUnsupported
	}
	n := d.profile.Masters()
	if len(fix) != n || len(be) != n {
		return fmt.Errorf("fix %d be %d: %w: want %d entries each",
			len(fix), len(be), ErrInvalid, n)
	}
	inactive := d.executing(d.membank.Read32(0)) ^ 1
	Logf("debug", "QoS Fix Offset[%#08x]", Region(Fix, inactive))
	Logf("debug", "QoS BE  Offset[%#08x]", Region(BE, inactive))
	d.writeBank(Fix, inactive, fix)
	d.writeBank(BE, inactive, be)
	return nil
}

// SetMaster writes one master's priority into the inactive bank.
func (d *Device) SetMaster(t Type, master int, v uint64) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.initialized() {
		return ErrUnsupported
	}
	if err := checkType(t); err != nil {
		return err
	}
	if err := d.checkMaster(master); err != nil {
		return err
	}
	inactive := d.executing(d.membank.Read32(0)) ^ 1
	d.regs.Write64(Offset(t, inactive, master), v)
	return nil
}

// Master reads one master's priority from the given bank.
func (d *Device) Master(t Type, bank uint32, master int) (uint64, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.initialized() {
		return 0, ErrUnsupported
	}
	if err := checkType(t); err != nil {
		return 0, err
	}
	if err := checkBank(bank); err != nil {
		return 0, err
	}
	if err := d.checkMaster(master); err != nil {
		return 0, err
	}
	return d.regs.Read64(Offset(t, bank, master)), nil
}

// Bank reads every master of one class and bank.
func (d *Device) Bank(t Type, bank uint32) ([]uint64, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.initialized() {
		return nil, ErrUnsupported
	}
	if err := checkType(t); err != nil {
		return nil, err
	}
	if err := checkBank(bank); err != nil {
		return nil, err
	}
	v := make([]uint64, d.profile.Masters())
	d.readBank(t, bank, v)
	return v, nil
}

// Switch makes the inactive bank live then copies it into the previously
// live bank so that both banks hold the same priorities.
//
// On ErrTimeout the hardware may already execute the new bank but the old
// bank isn't rewritten and the shadow flag is unchanged; the next
// successful Switch resynchronizes both.
func (d *Device) Switch() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.initialized() {
		return ErrUnsupported
	}

	membank := d.membank.Read32(0)
	Logf("debug", "Read Reg[MEMORY_BANK] value[%#08x]", membank)

	exe := d.executing(membank)
	next := exe ^ 1

	d.readBank(Fix, next, d.fixBuf)
	d.readBank(BE, next, d.beBuf)

	v := (membank &^ MembankSelect) | (next & MembankSelect)
	Logf("debug", "Write Reg[MEMORY_BANK] value[%#08x]", v)
	d.membank.Write32(0, v)

	if err := d.acknowledge(next); err != nil {
		Log("err", "rcar_qos_switch_membank: ", err)
		return err
	}

	d.exeMembankBk = next

	d.writeBank(Fix, exe, d.fixBuf)
	d.writeBank(BE, exe, d.beBuf)
	return nil
}

// acknowledge waits for the executing bank to become want.
func (d *Device) acknowledge(want uint32) error {
	switch s := d.profile.Poll.(type) {
	case FixedSleep:
		d.delay.Sleep(s.Min, s.Max)
		return nil
	case PollWithTimeout:
		for i := 0; i < s.Retries; i++ {
			v := d.membank.Read32(0)
			if (v&ExeMembank)>>8 == want {
				return nil
			}
			d.delay.Udelay(s.Interval)
		}
		return fmt.Errorf("%s: bank %d after %v: %w",
			DeviceName, want, s, ErrTimeout)
	}
	return fmt.Errorf("%s: %v: %w", DeviceName, d.profile.Poll, ErrInvalid)
}

func (d *Device) readBank(t Type, bank uint32, v []uint64) {
	for i := range v {
		v[i] = d.regs.Read64(Offset(t, bank, i))
	}
}

func (d *Device) writeBank(t Type, bank uint32, v []uint64) {
	for i, x := range v {
		d.regs.Write64(Offset(t, bank, i), x)
	}
}
