// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package qos

import (
	"fmt"
	"sync"

	uuid "github.com/satori/go.uuid"
)

type Device struct {
	mutex sync.Mutex

	mapper Mapper
	delay  Delayer

	regs    Port
	membank Port
	profile Profile

	// exeMembankBk is the executing bank as last switched by software.
	// It's the only record of the live bank on variants without the
	// status bit.
	exeMembankBk uint32

	fixBuf, beBuf []uint64

	backup   []uint64
	backupID uuid.UUID
	backedUp bool
}

// Status mirrors the memory bank control register.
type Status struct {
	// Select is the bank requested by software.
	Select uint32
	// Executing is the bank in use by the memory controller; on variants
	// without a live status bit, this is the software shadow.
	Executing uint32
	Live      bool
}

func (s Status) String() string {
	return fmt.Sprintf("select %d executing %d live %t",
		s.Select, s.Executing, s.Live)
}

// New returns an uninitialized Device; use Init before anything else.
func New(m Mapper, d Delayer) *Device {
	if d == nil {
		d = SystemDelay
	}
	return &Device{
		mapper: m,
		delay:  d,
		backup: make([]uint64, RegSize/EntrySize),
	}
}

// Init maps the QoS registers and identifies the chip. It does nothing if
// already initialized.
func (d *Device) Init() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.initialized() {
		return nil
	}

	regs, err := d.mapper.Map(RegBase, RegSize)
	if err != nil {
		Log("err", "rcar_qos_init: map registers: ", err)
		return fmt.Errorf("%s: registers: %w", DeviceName, err)
	}
	Logf("debug", "mapped registers %#x[%#x]", RegBase, RegSize)

	membank, err := d.mapper.Map(RegBase+uintptr(MembankReg), 4)
	if err != nil {
		regs.Close()
		Log("err", "rcar_qos_init: map memory bank: ", err)
		return fmt.Errorf("%s: memory bank: %w", DeviceName, err)
	}
	Logf("debug", "mapped memory bank %#x", RegBase+uintptr(MembankReg))

	v, err := readPRR(d.mapper)
	if err == nil {
		Logf("debug", "prr %#08x", v)
		d.profile, err = Identify(v)
	}
	if err != nil {
		membank.Close()
		regs.Close()
		d.profile = Profile{}
		Log("err", "rcar_qos_init: ", err)
		return fmt.Errorf("%s: %w", DeviceName, err)
	}

	d.regs = regs
	d.membank = membank
	d.fixBuf = make([]uint64, d.profile.Masters())
	d.beBuf = make([]uint64, d.profile.Masters())
	Log("info", "QoS: ", d.profile)
	return nil
}

// Teardown releases the register windows and forgets the chip. It's safe to
// call on an uninitialized Device.
func (d *Device) Teardown() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.initialized() {
		return
	}
	d.membank.Close()
	d.regs.Close()
	d.membank = nil
	d.regs = nil
	d.profile = Profile{}
	d.fixBuf = nil
	d.beBuf = nil
}

// Profile returns a copy of the identified chip profile.
func (d *Device) Profile() Profile {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.profile
}

func (d *Device) Status() (Status, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.initialized() {
		return Status{}, ErrUnsupported
	}
	v := d.membank.Read32(0)
	s := Status{
		Select:    v & MembankSelect,
		Executing: d.executing(v),
		Live:      d.profile.LiveBank,
	}
	return s, nil
}

func (d *Device) initialized() bool { return d.profile.MasterIDMax != 0 }

// executing returns the live bank from the given control register value or
// from the shadow flag.
func (d *Device) executing(membank uint32) uint32 {
	if d.profile.LiveBank {
		return (membank & ExeMembank) >> 8
	}
	return d.exeMembankBk
}

func (d *Device) checkMaster(master int) error {
	if master < 0 || master > d.profile.MasterIDMax {
		return fmt.Errorf("master %d: %w: valid range is 0-%d",
			master, ErrInvalid, d.profile.MasterIDMax)
	}
	return nil
}

func checkType(t Type) error {
	if t >= nTypes {
		return fmt.Errorf("%v: %w", t, ErrInvalid)
	}
	return nil
}

func checkBank(bank uint32) error {
	if bank > 1 {
		return fmt.Errorf("bank %d: %w", bank, ErrInvalid)
	}
	return nil
}
