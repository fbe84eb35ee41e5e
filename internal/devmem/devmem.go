// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package devmem maps physical register windows through /dev/mem.
package devmem

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/platinasystems/qos/internal/memmap"
	"github.com/platinasystems/qos/qos"
	"golang.org/x/sys/unix"
)

const (
	DefaultMem   = "/dev/mem"
	DefaultIOMem = "/proc/iomem"
)

// Mapper is a qos.Mapper of physical memory. If IOMem isn't empty, a window
// overlapping a region claimed in that file is refused unless the region is
// named in Shared.
type Mapper struct {
	Mem    string
	IOMem  string
	Shared []string
}

// New returns a Mapper of /dev/mem that checks /proc/iomem.
func New() *Mapper {
	return &Mapper{Mem: DefaultMem, IOMem: DefaultIOMem}
}

func (m *Mapper) Map(base uintptr, size uint32) (qos.Port, error) {
	if size == 0 {
		return nil, fmt.Errorf("%#x: empty window", base)
	}
	if len(m.IOMem) > 0 {
		regions, err := memmap.FileToMap(m.IOMem)
		if err != nil {
			return nil, err
		}
		if reg, found := regions.Claimed(base, size, m.Shared...); found {
			return nil, fmt.Errorf("%#x[%#x]: claimed by %q: %w",
				base, size, reg.What, os.ErrExist)
		}
	}
	f, err := os.OpenFile(m.Mem, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pagesize := uintptr(os.Getpagesize())
	start := base &^ (pagesize - 1)
	off := uint32(base - start)
	length := (uintptr(off) + uintptr(size) + pagesize - 1) &^ (pagesize - 1)
	mem, err := unix.Mmap(int(f.Fd()), int64(start), int(length),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s %#x[%#x]: %w",
			m.Mem, start, length, err)
	}
	return &Port{
		mem:  mem,
		base: base,
		off:  off,
		size: size,
	}, nil
}

// Port accesses a mapped window with single aligned loads and stores.
type Port struct {
	mem  []byte
	base uintptr
	off  uint32
	size uint32
}

func (p *Port) ptr(off, n uint32) unsafe.Pointer {
	if p.mem == nil {
		panic(fmt.Errorf("%#x: access after close", p.base))
	}
	if (p.off+off)%n != 0 || off+n > p.size {
		panic(fmt.Errorf("%#x: bad offset %#x", p.base, off))
	}
	return unsafe.Pointer(&p.mem[p.off+off])
}

func (p *Port) Read32(off uint32) uint32 {
	return atomic.LoadUint32((*uint32)(p.ptr(off, 4)))
}

func (p *Port) Write32(off uint32, v uint32) {
	atomic.StoreUint32((*uint32)(p.ptr(off, 4)), v)
}

func (p *Port) Read64(off uint32) uint64 {
	return atomic.LoadUint64((*uint64)(p.ptr(off, 8)))
}

func (p *Port) Write64(off uint32, v uint64) {
	atomic.StoreUint64((*uint64)(p.ptr(off, 8)), v)
}

func (p *Port) Close() error {
	if p.mem == nil {
		return nil
	}
	err := unix.Munmap(p.mem)
	p.mem = nil
	return err
}
