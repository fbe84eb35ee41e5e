// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package qossim simulates the QoS register file, memory bank control
// register and product register in ordinary memory.
package qossim

import (
	"fmt"
	"sync"

	"github.com/platinasystems/qos/internal/prr"
	"github.com/platinasystems/qos/qos"
)

// Ack is how the executing-bank status bit follows the select bit.
type Ack int

const (
	// Immediate copies the select bit on write.
	Immediate Ack = iota
	// Delayed copies the select bit on the AckReads'th read after write.
	Delayed
	// Stuck never updates the status bit.
	Stuck
)

var membankAddr = qos.RegBase + uintptr(qos.MembankReg)

type Hardware struct {
	mutex sync.Mutex

	Ack      Ack
	AckReads int
	// MapErr, if set, fails every Map.
	MapErr error

	prr     uint32
	words   map[uintptr]uint32
	pending int
	target  uint32

	membankReads int
	maps         int
	unmaps       int
}

func New(product prr.Product, cut prr.Cut, ack Ack) *Hardware {
	h := &Hardware{
		Ack: ack,
		prr: prr.Encode(product, cut),
	}
	h.PowerCycle()
	return h
}

// PowerCycle clears every register except the product register.
func (h *Hardware) PowerCycle() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.words = map[uintptr]uint32{
		prr.Base + uintptr(prr.Offset): h.prr,
	}
	h.pending = 0
}

// MembankReads counts control register reads.
func (h *Hardware) MembankReads() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.membankReads
}

// Mapped is the number of windows currently mapped.
func (h *Hardware) Mapped() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.maps - h.unmaps
}

func (h *Hardware) Membank() uint32 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.words[membankAddr]
}

// Poke sets a register without side effects.
func (h *Hardware) Poke(addr uintptr, v uint32) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.words[addr] = v
}

func (h *Hardware) Map(base uintptr, size uint32) (qos.Port, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.MapErr != nil {
		return nil, h.MapErr
	}
	h.maps++
	return &window{h: h, base: base, size: size}, nil
}

func (h *Hardware) read32(addr uintptr) uint32 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if addr == membankAddr {
		h.membankReads++
		if h.pending > 0 {
			h.pending--
			if h.pending == 0 {
				h.setExe(h.target)
			}
		}
	}
	return h.words[addr]
}

func (h *Hardware) write32(addr uintptr, v uint32) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if addr != membankAddr {
		h.words[addr] = v
		return
	}
	exe := h.words[addr] & qos.ExeMembank
	h.words[addr] = (v &^ qos.ExeMembank) | exe
	sel := v & qos.MembankSelect
	switch h.Ack {
	case Immediate:
		h.setExe(sel)
	case Delayed:
		h.target = sel
		h.pending = h.AckReads
		if h.pending <= 0 {
			h.setExe(sel)
		}
	}
}

func (h *Hardware) setExe(bank uint32) {
	w := h.words[membankAddr] &^ qos.ExeMembank
	h.words[membankAddr] = w | (bank << 8)
}

type window struct {
	h      *Hardware
	base   uintptr
	size   uint32
	closed bool
}

func (w *window) addr(off, n uint32) uintptr {
	if w.closed {
		panic(fmt.Errorf("%#x: access after close", w.base))
	}
	if off+n > w.size || off%n != 0 {
		panic(fmt.Errorf("%#x: bad offset %#x", w.base, off))
	}
	return w.base + uintptr(off)
}

func (w *window) Read32(off uint32) uint32 {
	return w.h.read32(w.addr(off, 4))
}

func (w *window) Write32(off uint32, v uint32) {
	w.h.write32(w.addr(off, 4), v)
}

// 64-bit access is two 32-bit accesses, low word first.
func (w *window) Read64(off uint32) uint64 {
	a := w.addr(off, 8)
	lo := w.h.read32(a)
	hi := w.h.read32(a + 4)
	return uint64(lo) | uint64(hi)<<32
}

func (w *window) Write64(off uint32, v uint64) {
	a := w.addr(off, 8)
	w.h.write32(a, uint32(v))
	w.h.write32(a+4, uint32(v>>32))
}

func (w *window) Close() error {
	if w.closed {
		return fmt.Errorf("%#x: already closed", w.base)
	}
	w.closed = true
	w.h.mutex.Lock()
	w.h.unmaps++
	w.h.mutex.Unlock()
	return nil
}
