// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package qosd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/platinasystems/log"
	"github.com/platinasystems/qos/internal/metrics"
	"github.com/platinasystems/qos/qos"
	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"
)

// DeviceKey prefixes every published field.
const DeviceKey = "qos"

// Void is the placeholder argument or reply of RPCs without one; gob
// can't encode an empty struct.
type Void int

type SetAllArgs struct {
	Fix, BE []uint64
}

// MasterArgs select one class, bank and master. SetIP ignores Bank and Dump
// ignores Master.
type MasterArgs struct {
	Type   qos.Type
	Bank   uint32
	Master int
	Value  uint64
}

type StatusReply struct {
	Version     string
	Profile     string
	MasterIDMax int
	Status      qos.Status
	Snapshot    string
}

func (r StatusReply) String() string {
	s := fmt.Sprintf("version: %s\nchip: %s\nmasters: %d\n%v\n",
		r.Version, r.Profile, r.MasterIDMax+1, r.Status)
	if len(r.Snapshot) > 0 {
		s += "snapshot: " + r.Snapshot + "\n"
	}
	return s
}

type DumpReply struct {
	Bank    uint32
	Fix, BE []uint64
}

func (i *Info) SetAll(args SetAllArgs, _ *Void) error {
	if err := i.dev.SetAll(args.Fix, args.BE); err != nil {
		return err
	}
	metrics.SetAllTotal.Inc()
	return nil
}

func (i *Info) Switch(_ Void, r *StatusReply) error {
	if err := i.doSwitch(); err != nil {
		return err
	}
	return i.Status(Void(0), r)
}

func (i *Info) Status(_ Void, r *StatusReply) error {
	s, err := i.dev.Status()
	if err != nil {
		return err
	}
	p := i.dev.Profile()
	i.mutex.Lock()
	defer i.mutex.Unlock()
	*r = StatusReply{
		Version:     qos.Version,
		Profile:     p.String(),
		MasterIDMax: p.MasterIDMax,
		Status:      s,
		Snapshot:    i.last[DeviceKey+".snapshot"],
	}
	return nil
}

func (i *Info) Get(args MasterArgs, v *uint64) (err error) {
	*v, err = i.dev.Master(args.Type, args.Bank, args.Master)
	return
}

func (i *Info) SetIP(args MasterArgs, _ *Void) error {
	err := i.dev.SetMaster(args.Type, args.Master, args.Value)
	if err != nil {
		return err
	}
	metrics.SetMasterTotal.Inc()
	return nil
}

func (i *Info) Dump(args MasterArgs, r *DumpReply) error {
	fix, err := i.dev.Bank(qos.Fix, args.Bank)
	if err != nil {
		return err
	}
	be, err := i.dev.Bank(qos.BE, args.Bank)
	if err != nil {
		return err
	}
	*r = DumpReply{Bank: args.Bank, Fix: fix, BE: be}
	return nil
}

func (i *Info) Suspend(_ Void, id *string) error {
	uid, err := i.dev.Suspend()
	if err != nil {
		return err
	}
	metrics.SuspendsTotal.Inc()
	*id = uid.String()
	i.mutex.Lock()
	i.publish("snapshot", *id)
	i.mutex.Unlock()
	return nil
}

// Resume restores the last Suspend. Unacknowledged bank selections are
// returned after the restore completes.
func (i *Info) Resume(_ Void, _ *Void) error {
	err := i.dev.Resume()
	metrics.ResumesTotal.Inc()
	if err != nil {
		metrics.ResumeErrorsTotal.Inc()
		log.Print("daemon", "err", "resume: ", err)
	}
	i.mutex.Lock()
	i.publishStatus()
	i.mutex.Unlock()
	return err
}

// Hset runs the operation named by the field, e.g.
//
//	hset platina qos.switch true
func (i *Info) Hset(args args.Hset, reply *reply.Hset) error {
	field := strings.TrimPrefix(args.Field, DeviceKey+".")
	switch field {
	case "switch":
		if err := i.doSwitch(); err != nil {
			return err
		}
	case "suspend":
		var id string
		if err := i.Suspend(Void(0), &id); err != nil {
			return err
		}
	case "resume":
		if err := i.Resume(Void(0), nil); err != nil {
			return err
		}
	default:
		return fmt.Errorf("can't hset %s", args.Field)
	}
	*reply = 1
	return nil
}

func (i *Info) doSwitch() error {
	err := i.dev.Switch()
	if errors.Is(err, qos.ErrTimeout) {
		metrics.SwitchTimeoutsTotal.Inc()
	} else if err == nil {
		metrics.SwitchesTotal.Inc()
	}
	i.mutex.Lock()
	i.publishStatus()
	i.mutex.Unlock()
	return err
}

// publishAll must be called with the mutex held.
func (i *Info) publishAll() {
	p := i.dev.Profile()
	i.publish("version", qos.Version)
	i.publish("product", p.Product)
	i.publish("cut", p.Cut)
	i.publish("masters", p.Masters())
	i.publishStatus()
}

func (i *Info) publishStatus() {
	s, err := i.dev.Status()
	if err != nil {
		return
	}
	metrics.ExecutingBank.Set(float64(s.Executing))
	i.publish("select", s.Select)
	i.publish("executing", s.Executing)
	i.publish("live", s.Live)
}

// publish prints changed values; it only records them without a publisher.
func (i *Info) publish(field string, v interface{}) {
	k := DeviceKey + "." + field
	s := fmt.Sprint(v)
	if i.last[k] == s {
		return
	}
	i.last[k] = s
	if i.pub != nil {
		i.pub.Print(k, ": ", s)
	}
}
