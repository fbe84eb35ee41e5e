// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package qos_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/platinasystems/qos/internal/prr"
	"github.com/platinasystems/qos/internal/qossim"
	"github.com/platinasystems/qos/qos"
)

var chips = []struct {
	name    string
	product prr.Product
	cut     prr.Cut
	ack     qossim.Ack
}{
	// without a status bit the sim must never be polled
	{"h3", prr.H3, prr.ES20, qossim.Stuck},
	{"m3-w", prr.M3W, prr.ES10, qossim.Immediate},
}

func TestSwitch(t *testing.T) {
	for _, chip := range chips {
		t.Run(chip.name, func(t *testing.T) {
			d, _, _ := newDevice(t, chip.product, chip.cut, chip.ack)
			n := d.Profile().Masters()
			fix, be := pattern(n, 1), pattern(n, 2)
			if err := d.SetAll(fix, be); err != nil {
				t.Fatal(err)
			}
			// nothing visible until the switch
			expectBank(t, d, qos.Fix, 0, make([]uint64, n))
			expectBank(t, d, qos.Fix, 1, fix)
			expectBank(t, d, qos.BE, 1, be)
			if err := d.Switch(); err != nil {
				t.Fatal(err)
			}
			s, err := d.Status()
			if err != nil {
				t.Fatal(err)
			}
			if s.Select != 1 || s.Executing != 1 {
				t.Error(s)
			}
			for b := uint32(0); b < 2; b++ {
				expectBank(t, d, qos.Fix, b, fix)
				expectBank(t, d, qos.BE, b, be)
			}

			// a second switch with no new config changes nothing
			if err := d.Switch(); err != nil {
				t.Fatal(err)
			}
			if s, _ = d.Status(); s.Executing != 0 {
				t.Error(s)
			}
			for b := uint32(0); b < 2; b++ {
				expectBank(t, d, qos.Fix, b, fix)
				expectBank(t, d, qos.BE, b, be)
			}

			// the next config lands in bank 1 again
			fix2, be2 := pattern(n, 3), pattern(n, 4)
			if err := d.SetAll(fix2, be2); err != nil {
				t.Fatal(err)
			}
			expectBank(t, d, qos.Fix, 1, fix2)
			expectBank(t, d, qos.Fix, 0, fix)
			if err := d.Switch(); err != nil {
				t.Fatal(err)
			}
			expectBank(t, d, qos.Fix, 0, fix2)
			expectBank(t, d, qos.BE, 0, be2)
		})
	}
}

// 110 masters, two switches, the second with no new configuration.
func TestH3ES2Scenario(t *testing.T) {
	d, _, dl := newDevice(t, prr.H3, prr.ES20, qossim.Stuck)
	if max := d.Profile().MasterIDMax; max != 109 {
		t.Fatal("master id max", max)
	}
	fix, be := pattern(110, 0xf1), pattern(110, 0xbe)
	if err := d.SetAll(fix, be); err != nil {
		t.Fatal(err)
	}
	if err := d.Switch(); err != nil {
		t.Fatal(err)
	}
	active := bank(t, d, qos.Fix, 1)
	expectBank(t, d, qos.Fix, 1, fix)
	expectBank(t, d, qos.BE, 1, be)
	if err := d.Switch(); err != nil {
		t.Fatal(err)
	}
	expectBank(t, d, qos.Fix, 0, active)
	expectBank(t, d, qos.BE, 0, be)
	if dl.sleeps != 2 || dl.udelays != 0 {
		t.Error("sleeps", dl.sleeps, "udelays", dl.udelays)
	}
	if dl.min != qos.H3Wait.Min || dl.max != qos.H3Wait.Max {
		t.Error("sleep range", dl.min, dl.max)
	}
}

func TestSwitchTimeout(t *testing.T) {
	d, hw, dl := newDevice(t, prr.M3W, prr.ES10, qossim.Stuck)
	n := d.Profile().Masters()
	fix, be := pattern(n, 5), pattern(n, 6)
	if err := d.SetAll(fix, be); err != nil {
		t.Fatal(err)
	}
	before := hw.MembankReads()
	err := d.Switch()
	if !errors.Is(err, qos.ErrTimeout) {
		t.Fatal(err)
	}
	// one read to find the live bank then exactly five polls
	if polls := hw.MembankReads() - before - 1; polls != 5 {
		t.Error("polls", polls)
	}
	if dl.udelays != 5 || dl.sleeps != 0 {
		t.Error("udelays", dl.udelays, "sleeps", dl.sleeps)
	}
	// the select bit moved but nothing was mirrored
	if sel := hw.Membank() & qos.MembankSelect; sel != 1 {
		t.Error("select", sel)
	}
	expectBank(t, d, qos.Fix, 0, make([]uint64, n))

	// once the hardware acknowledges, the next switch resynchronizes
	hw.Ack = qossim.Immediate
	if err := d.Switch(); err != nil {
		t.Fatal(err)
	}
	for b := uint32(0); b < 2; b++ {
		expectBank(t, d, qos.Fix, b, fix)
		expectBank(t, d, qos.BE, b, be)
	}
}

func TestSwitchDelayedAck(t *testing.T) {
	for _, x := range []struct {
		reads int
		err   error
	}{
		{1, nil},
		{4, nil},
		{5, nil},
		{6, qos.ErrTimeout},
	} {
		d, hw, _ := newDevice(t, prr.M3W, prr.ES20, qossim.Delayed)
		hw.AckReads = x.reads
		before := hw.MembankReads()
		err := d.Switch()
		if !errors.Is(err, x.err) {
			t.Errorf("ack after %d reads: %v", x.reads, err)
		}
		want := x.reads
		if want > 5 {
			want = 5
		}
		if polls := hw.MembankReads() - before - 1; polls != want {
			t.Errorf("ack after %d reads: %d polls", x.reads, polls)
		}
	}
}

func TestSetAllSize(t *testing.T) {
	d, _, _ := newDevice(t, prr.M3W, prr.ES10, qossim.Immediate)
	n := d.Profile().Masters()
	for _, x := range [][2]int{{n - 1, n}, {n, n + 1}, {0, 0},
		{qos.MaxMasters, qos.MaxMasters}} {
		err := d.SetAll(make([]uint64, x[0]), make([]uint64, x[1]))
		if !errors.Is(err, qos.ErrInvalid) {
			t.Errorf("%v: %v", x, err)
		}
	}
}

func TestMaster(t *testing.T) {
	d, _, _ := newDevice(t, prr.M3W, prr.ES10, qossim.Immediate)
	max := d.Profile().MasterIDMax
	if err := d.SetMaster(qos.BE, max, 0x1234_5678_9abc_def0); err != nil {
		t.Fatal(err)
	}
	v, err := d.Master(qos.BE, 1, max)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x1234_5678_9abc_def0 {
		t.Errorf("%#x", v)
	}
	if v, _ = d.Master(qos.BE, 0, max); v != 0 {
		t.Errorf("live bank written: %#x", v)
	}
	if v, _ = d.Master(qos.Fix, 1, max); v != 0 {
		t.Errorf("other class written: %#x", v)
	}
	if err = d.Switch(); err != nil {
		t.Fatal(err)
	}
	if v, _ = d.Master(qos.BE, 0, max); v != 0x1234_5678_9abc_def0 {
		t.Errorf("not mirrored: %#x", v)
	}
	t.Run("invalid", func(t *testing.T) {
		for name, err := range map[string]error{
			"negative": d.SetMaster(qos.Fix, -1, 0),
			"too big":  d.SetMaster(qos.Fix, max+1, 0),
			"type":     d.SetMaster(qos.Type(2), 0, 0),
		} {
			if !errors.Is(err, qos.ErrInvalid) {
				t.Errorf("%s: %v", name, err)
			}
		}
		if _, err := d.Master(qos.Fix, 2, 0); !errors.Is(err, qos.ErrInvalid) {
			t.Error("bank", err)
		}
		if _, err := d.Bank(qos.Type(7), 0); !errors.Is(err, qos.ErrInvalid) {
			t.Error("type", err)
		}
	})
}

func TestStatus(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		d, hw, _ := newDevice(t, prr.M3W, prr.ES10, qossim.Stuck)
		// hardware reports bank 1 executing regardless of software
		hw.Poke(qos.RegBase+uintptr(qos.MembankReg), qos.ExeMembank)
		s, err := d.Status()
		if err != nil {
			t.Fatal(err)
		}
		if !s.Live || s.Executing != 1 || s.Select != 0 {
			t.Error(s)
		}
	})
	t.Run("shadow", func(t *testing.T) {
		d, hw, _ := newDevice(t, prr.H3, prr.ES11, qossim.Stuck)
		hw.Poke(qos.RegBase+uintptr(qos.MembankReg), qos.ExeMembank)
		s, _ := d.Status()
		if s.Live || s.Executing != 0 {
			t.Error(s)
		}
		if err := d.Switch(); err != nil {
			t.Fatal(err)
		}
		if s, _ = d.Status(); s.Executing != 1 || s.Select != 1 {
			t.Error(s)
		}
	})
}

func TestSwitchConcurrent(t *testing.T) {
	const N = 32
	for _, chip := range chips {
		t.Run(chip.name, func(t *testing.T) {
			d, _, _ := newDevice(t, chip.product, chip.cut, chip.ack)
			n := d.Profile().Masters()
			fix, be := pattern(n, 7), pattern(n, 8)
			if err := d.SetAll(fix, be); err != nil {
				t.Fatal(err)
			}
			var wg sync.WaitGroup
			errs := make(chan error, N)
			for i := 0; i < N; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- d.Switch()
					d.Status()
				}()
			}
			wg.Wait()
			close(errs)
			ok := 0
			for err := range errs {
				if err == nil {
					ok++
				} else if !errors.Is(err, qos.ErrTimeout) {
					t.Error(err)
				}
			}
			if ok != N {
				t.Error("successful switches", ok)
			}
			s, _ := d.Status()
			if s.Executing != N%2 {
				t.Error(s)
			}
			for b := uint32(0); b < 2; b++ {
				expectBank(t, d, qos.Fix, b, fix)
				expectBank(t, d, qos.BE, b, be)
			}
		})
	}
}
