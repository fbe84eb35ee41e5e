// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package qos

import (
	"errors"

	uuid "github.com/satori/go.uuid"
)

// Suspend saves both banks of both classes before the power domain goes
// down. It doesn't touch the hardware beyond reading it and returns the id
// of the saved image.
func (d *Device) Suspend() (uuid.UUID, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.initialized() {
		return uuid.Nil, ErrUnsupported
	}
	for bank := uint32(0); bank < 2; bank++ {
		d.backupBank(Fix, bank)
		d.backupBank(BE, bank)
	}
	d.backupID = uuid.NewV4()
	d.backedUp = true
	Log("info", "QoS: saved ", d.backupID)
	return d.backupID, nil
}

// Resume restores the image saved by Suspend. Bank 1 is reloaded and
// selected first, then bank 0 is reloaded and, if bank 0 was executing
// before suspend, selected again.
//
// FIXME this assumes the hardware always powers up with bank 0 selected and
// the other control bits clear; unverified.
//
// Acknowledge failures are logged and returned but never interrupt the
// sequence.
func (d *Device) Resume() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.initialized() {
		return ErrUnsupported
	}
	if !d.backedUp {
		Log("warn", "QoS: resume without suspend")
		return nil
	}

	var errs []error
	ack := func(bank uint32) {
		Logf("debug", "Write Reg[MEMORY_BANK] value[%#08x]", bank)
		d.membank.Write32(0, bank)
		if err := d.acknowledge(bank); err != nil {
			Log("err", "rcar_qos_resume: ", err)
			errs = append(errs, err)
		}
	}

	d.reloadBank(Fix, 1)
	d.reloadBank(BE, 1)
	ack(1)

	d.reloadBank(Fix, 0)
	d.reloadBank(BE, 0)
	if d.exeMembankBk == 0 {
		ack(0)
	}

	Log("info", "QoS: restored ", d.backupID)
	return errors.Join(errs...)
}

func (d *Device) backupBank(t Type, bank uint32) {
	for i := 0; i < d.profile.Masters(); i++ {
		off := Offset(t, bank, i)
		d.backup[off/EntrySize] = d.regs.Read64(off)
	}
}

func (d *Device) reloadBank(t Type, bank uint32) {
	for i := 0; i < d.profile.Masters(); i++ {
		off := Offset(t, bank, i)
		d.regs.Write64(off, d.backup[off/EntrySize])
	}
}
