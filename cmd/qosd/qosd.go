// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package qosd owns the memory controller QoS unit. It serves the qos
// command through an atsock RPC server, publishes the bank status to redis
// and counts operations for prometheus.
package qosd

import (
	"fmt"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/platinasystems/atsock"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/qos/goes/cmd"
	"github.com/platinasystems/qos/goes/lang"
	"github.com/platinasystems/qos/internal/devmem"
	"github.com/platinasystems/qos/internal/metrics"
	"github.com/platinasystems/qos/internal/prr"
	"github.com/platinasystems/qos/internal/qossim"
	"github.com/platinasystems/qos/qos"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
)

const Name = "qosd"

// Redis readiness retry.
var (
	RedisAttempts = 10
	RedisBackoff  = backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
	}

	isReady = redis.IsReady
	sleep   = time.Sleep
)

type Command struct {
	Info
	// Init, if set, runs once before the first Main.
	Init func()
	init sync.Once
}

type Info struct {
	mutex sync.Mutex
	dev   *qos.Device
	rpc   *atsock.RpcServer
	pub   *publisher.Publisher
	stop  chan struct{}
	last  map[string]string
}

func (*Command) String() string { return Name }

func (*Command) Usage() string {
	return "qosd [-sim PRODUCT/CUT] [-mem FILE] [-iomem FILE] [-metrics ADDR] [-no-redis]"
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "memory controller QoS daemon",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Maps the R-Car memory controller QoS registers, identifies the chip
	from its product register and serves the qos command.

	The daemon publishes these keys to redis:

		qos.version qos.product qos.cut qos.masters
		qos.select qos.executing qos.live qos.snapshot

	and switches banks on "hset platina qos.switch true"; similarly
	qos.suspend and qos.resume.

OPTIONS
	-sim PRODUCT/CUT
		simulate the register file of the given chip,
		e.g. h3/es2.0 or m3-w/es1.0
	-mem FILE	physical memory device, default /dev/mem
	-iomem FILE	refuse windows claimed in FILE, default /proc/iomem;
			"none" disables the check
	-metrics ADDR	serve prometheus metrics at http://ADDR/metrics
	-no-redis	don't wait for or publish to redis`,
	}
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func (c *Command) Main(args ...string) error {
	if c.Init != nil {
		c.init.Do(c.Init)
	}

	flag, args := flags.New(args, "-no-redis")
	parm, args := parms.New(args, "-sim", "-mem", "-iomem", "-metrics")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}

	m, err := Mapper(parm.ByName)
	if err != nil {
		return err
	}

	log.Print("daemon", "info", "QoS: install v", qos.Version)
	if err = c.start(m); err != nil {
		return err
	}
	defer c.dev.Teardown()

	if addr := parm.ByName["-metrics"]; len(addr) > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			err := srv.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				log.Print("daemon", "err", "metrics: ", err)
			}
		}()
		defer srv.Close()
	}

	if !flag.ByName["-no-redis"] {
		if err = WaitRedis(); err != nil {
			return err
		}
		if c.pub, err = publisher.New(); err != nil {
			return err
		}
		defer c.pub.Close()
		err = redis.Assign(redis.DefaultHash+":"+DeviceKey+".", Name,
			"Info")
		if err != nil {
			return err
		}
	}

	rpc.Register(&c.Info)
	if c.rpc, err = atsock.NewRpcServer(Name); err != nil {
		return err
	}
	defer c.rpc.Close()

	c.mutex.Lock()
	stop := c.stop
	c.publishAll()
	c.mutex.Unlock()

	<-stop
	return nil
}

func (c *Command) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	return nil
}

// NewInfo returns an RPC receiver of the chip behind m without the daemon's
// sockets.
func NewInfo(m qos.Mapper) (*Info, error) {
	i := new(Info)
	if err := i.start(m); err != nil {
		return nil, err
	}
	return i, nil
}

// Teardown releases the chip.
func (i *Info) Teardown() { i.dev.Teardown() }

// start identifies the chip behind m.
func (i *Info) start(m qos.Mapper) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	i.stop = make(chan struct{})
	i.last = make(map[string]string)
	i.dev = qos.New(m, nil)
	return i.dev.Init()
}

// Mapper returns the simulator named by "-sim" or else physical memory
// checked against "-iomem".
func Mapper(parm parms.ByName) (qos.Mapper, error) {
	if s := parm["-sim"]; len(s) > 0 {
		product, cut, err := prr.Parse(s)
		if err != nil {
			return nil, err
		}
		log.Print("daemon", "info", "QoS: simulating ", product, " ",
			cut)
		return qossim.New(product, cut, qossim.Immediate), nil
	}
	m := devmem.New()
	if s := parm["-mem"]; len(s) > 0 {
		m.Mem = s
	}
	switch s := parm["-iomem"]; s {
	case "":
	case "none":
		m.IOMem = ""
	default:
		m.IOMem = s
	}
	return m, nil
}

// WaitRedis retries redis.IsReady with exponential backoff.
func WaitRedis() error {
	b := RedisBackoff
	var err error
	for n := 0; n < RedisAttempts; n++ {
		if err = isReady(); err == nil {
			return nil
		}
		d := b.Duration()
		log.Print("daemon", "warn", "redis: ", err, "; retry in ", d)
		sleep(d)
	}
	return fmt.Errorf("redis: %w", err)
}
