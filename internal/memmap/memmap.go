// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package memmap parses /proc/iomem and anything else of similar structure
// to find which driver, if any, has claimed a physical address range.
package memmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

type Region struct {
	What   string
	Ranges []*Range
}

// Range is inclusive of End, as printed by the kernel.
type Range struct {
	Start uintptr
	End   uintptr
}

type RegionMap map[string]Region

func (r Region) String() string {
	return fmt.Sprintf("%s: %v", r.What, r.Ranges)
}

func (r Range) String() string {
	return fmt.Sprintf("%x-%x", r.Start, r.End)
}

// Overlaps reports whether [base, base+size) intersects the range.
func (r Range) Overlaps(base uintptr, size uint32) bool {
	if size == 0 {
		return false
	}
	last := base + uintptr(size) - 1
	return base <= r.End && r.Start <= last
}

// Claimed returns the first region, other than those named in ignore, that
// overlaps [base, base+size).
func (m RegionMap) Claimed(base uintptr, size uint32,
	ignore ...string) (Region, bool) {
next:
	for what, reg := range m {
		for _, s := range ignore {
			if what == s {
				continue next
			}
		}
		for _, rng := range reg.Ranges {
			if rng.Overlaps(base, size) {
				return reg, true
			}
		}
	}
	return Region{}, false
}

func ReaderToMap(r io.Reader) (RegionMap, error) {
	regionMap := make(RegionMap)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), ":", 2)
		if len(fields) != 2 {
			continue
		}
		var start, end uintptr
		n, err := fmt.Sscanf(strings.TrimSpace(fields[0]), "%x-%x",
			&start, &end)
		if n != 2 || err != nil {
			continue
		}
		key := strings.TrimSpace(fields[1])
		reg := regionMap[key]
		reg.What = key
		reg.Ranges = append(reg.Ranges, &Range{Start: start, End: end})
		regionMap[key] = reg
	}
	return regionMap, scanner.Err()
}

func FileToMap(s string) (RegionMap, error) {
	f, err := os.OpenFile(s, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReaderToMap(f)
}
