// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package qos

import (
	"fmt"
	"time"

	"github.com/platinasystems/qos/internal/prr"
)

// PollStrategy is how a bank flip is acknowledged; either FixedSleep or
// PollWithTimeout.
type PollStrategy interface {
	String() string
}

// FixedSleep is for variants without a live executing-bank status bit.
type FixedSleep struct {
	Min, Max time.Duration
}

// PollWithTimeout reads the status bit up to Retries times, Interval apart.
type PollWithTimeout struct {
	Retries  int
	Interval time.Duration
}

func (s FixedSleep) String() string {
	return fmt.Sprintf("sleep %v-%v", s.Min, s.Max)
}

func (s PollWithTimeout) String() string {
	return fmt.Sprintf("poll %d x %v", s.Retries, s.Interval)
}

var (
	H3Wait  = FixedSleep{100 * time.Microsecond, 1000 * time.Microsecond}
	M3WWait = PollWithTimeout{5, 10 * time.Microsecond}
)

const (
	MasterIDMaxH3ES1 = 103
	MasterIDMaxH3ES2 = 109
	MasterIDMaxM3W   = 99
)

// Profile is derived once by Init and zeroed by Teardown.
type Profile struct {
	Product prr.Product
	Cut     prr.Cut
	// MasterIDMax is the highest valid 0-based master index; zero means
	// uninitialized or unsupported.
	MasterIDMax int
	// LiveBank is set if the control register reports the executing bank.
	LiveBank bool
	Poll     PollStrategy
}

// Masters is the number of QoS entries per bank.
func (p Profile) Masters() int {
	if p.MasterIDMax == 0 {
		return 0
	}
	return p.MasterIDMax + 1
}

func (p Profile) String() string {
	if p.MasterIDMax == 0 {
		return "unsupported"
	}
	return fmt.Sprintf("%v %v masters %d live %t %v",
		p.Product, p.Cut, p.Masters(), p.LiveBank, p.Poll)
}

type variant struct {
	product prr.Product
	cut     prr.Cut
}

var variants = map[variant]Profile{
	{prr.H3, prr.ES10}: {
		MasterIDMax: MasterIDMaxH3ES1,
		Poll:        H3Wait,
	},
	{prr.H3, prr.ES11}: {
		MasterIDMax: MasterIDMaxH3ES1,
		Poll:        H3Wait,
	},
	{prr.H3, prr.ES20}: {
		MasterIDMax: MasterIDMaxH3ES2,
		Poll:        H3Wait,
	},
	{prr.M3W, prr.ES10}: {
		MasterIDMax: MasterIDMaxM3W,
		LiveBank:    true,
		Poll:        M3WWait,
	},
	// ES2.0 encoding of M3-W Ver1.1
	{prr.M3W, prr.ES20}: {
		MasterIDMax: MasterIDMaxM3W,
		LiveBank:    true,
		Poll:        M3WWait,
	},
}

// Identify classifies a raw PRR value.
func Identify(v uint32) (Profile, error) {
	product, cut := prr.Decode(v)
	p, found := variants[variant{product, cut}]
	if !found {
		return Profile{}, fmt.Errorf("%v %v: %w", product, cut,
			ErrUnsupported)
	}
	p.Product = product
	p.Cut = cut
	return p, nil
}

// readPRR maps the product register window just long enough to read it.
func readPRR(m Mapper) (uint32, error) {
	w, err := m.Map(prr.Base, prr.Size)
	if err != nil {
		return 0, fmt.Errorf("prr: %w", err)
	}
	v := w.Read32(prr.Offset)
	if err = w.Close(); err != nil {
		return 0, fmt.Errorf("prr: %w", err)
	}
	return v, nil
}
