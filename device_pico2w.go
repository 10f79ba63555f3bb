//go:build rp2350

//----------------------------------------------------------------------
// This file is part of wifiled.
// Copyright (C) 2024-present Bernd Fix   >Y<
//
// wifiled is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// wifiled is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package wifiled

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/seqs/eth/dhcp"
	"github.com/soypat/seqs/stacks"
)

// Raspberry Pico2 W  [RP2350]
type Pico2WDevice struct {
	ref *cyw43439.Device // reference to device
}

// LED on or off. The LED is wired to GPIO0 of the wifi chip.
func (dev *Pico2WDevice) LED(on bool) {
	dev.ref.GPIOSet(0, on)
}

// InitDevice powers up the wifi chip (which also drives the LED).
func InitDevice(logger *slog.Logger) (*Pico2WDevice, error) {
	dev := new(Pico2WDevice)
	dev.ref = cyw43439.NewPicoWDevice()
	wificfg := cyw43439.DefaultWifiConfig()
	wificfg.Logger = logger
	devInitTime := time.Now()
	if err := dev.ref.Init(wificfg); err != nil {
		return nil, err
	}
	logger.Info("cyw43439:Init", slog.Duration("duration", time.Since(devInitTime)))
	return dev, nil
}

//======================================================================
// Station on the CYW43439 with a seqs network stack
//======================================================================

const mtu = cyw43439.MTU

// SetupConfig for the Pico W station
type SetupConfig struct {
	// DHCP requested hostname.
	Hostname string
	// DHCP requested IP address. On failing to find DHCP server is used as static IP.
	RequestedIP string
	Logger      *slog.Logger
	// Number of TCP ports to open for the stack (control port + status).
	TCPPorts uint16

	SSID   string
	Passwd string
}

// PicoStation joins a WPA2 network and acquires an address via DHCP.
// Association runs in the background; outcomes are delivered as events
// from the station's dispatch goroutine.
type PicoStation struct {
	dev     *cyw43439.Device
	cfg     SetupConfig
	logger  *slog.Logger
	reqAddr netip.Addr

	mu      sync.Mutex
	handler EventHandler
	queue   chan Event
	stack   *stacks.PortStack
	dhcpc   *stacks.DHCPClient // one client for all attempts (owns UDP port 68)
}

// NewPicoStation for an initialized device.
func NewPicoStation(dev *Pico2WDevice, cfg SetupConfig) *PicoStation {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.TCPPorts == 0 {
		cfg.TCPPorts = 1
	}
	return &PicoStation{
		dev:    dev.ref,
		cfg:    cfg,
		logger: logger,
	}
}

// Init validates the configuration and starts event dispatching.
func (s *PicoStation) Init() (err error) {
	if s.cfg.RequestedIP != "" {
		if s.reqAddr, err = netip.ParseAddr(s.cfg.RequestedIP); err != nil {
			return
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue == nil {
		s.queue = make(chan Event, 4)
		go s.dispatch()
	}
	return nil
}

// Subscribe sets the event handler.
func (s *PicoStation) Subscribe(h EventHandler) (cancel func()) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.handler = nil
		s.mu.Unlock()
	}
}

// Start reports the station as started.
func (s *PicoStation) Start() error {
	if len(s.cfg.Passwd) == 0 {
		s.logger.Info("joining open network:", slog.String("ssid", s.cfg.SSID))
	} else {
		s.logger.Info("joining WPA secure network", slog.String("ssid", s.cfg.SSID), slog.Int("passlen", len(s.cfg.Passwd)))
	}
	s.queue <- Event{Kind: EventStarted}
	return nil
}

// Associate starts a join attempt in the background.
func (s *PicoStation) Associate() error {
	go s.join()
	return nil
}

// Listen returns a TCP listener on the given port. The stack only
// exists after the station joined.
func (s *PicoStation) Listen(port uint16) (net.Listener, error) {
	s.mu.Lock()
	stack := s.stack
	s.mu.Unlock()
	if stack == nil {
		return nil, errors.New("no network stack")
	}
	listener, err := stacks.NewTCPListener(stack, stacks.TCPListenerConfig{
		MaxConnections: 1,
		ConnTxBufSize:  512,
		ConnRxBufSize:  BufSize,
	})
	if err != nil {
		return nil, err
	}
	if err = listener.StartListening(port); err != nil {
		return nil, err
	}
	return listener, nil
}

func (s *PicoStation) dispatch() {
	for ev := range s.queue {
		s.mu.Lock()
		h := s.handler
		s.mu.Unlock()
		if h != nil {
			h(ev)
		}
	}
}

// join the access point and run DHCP; report the outcome.
func (s *PicoStation) join() {
	if err := s.dev.JoinWPA2(s.cfg.SSID, s.cfg.Passwd); err != nil {
		s.logger.Error("wifi join failed", slog.String("err", err.Error()))
		s.queue <- Event{Kind: EventDisconnected}
		return
	}
	mac, _ := s.dev.HardwareAddr6()
	s.logger.Info("wifi join success!", slog.String("mac", net.HardwareAddr(mac[:]).String()))

	s.mu.Lock()
	stack := s.stack
	if stack == nil {
		stack = stacks.NewPortStack(stacks.PortStackConfig{
			MAC:             mac,
			MaxOpenPortsUDP: 2, // DHCP client + spare while a port is released
			MaxOpenPortsTCP: int(s.cfg.TCPPorts),
			MTU:             mtu,
			Logger:          s.logger,
		})
		s.dev.RecvEthHandle(stack.RecvEth)
		// Begin asynchronous packet handling.
		go nicLoop(s.dev, stack)
		s.stack = stack
		s.dhcpc = stacks.NewDHCPClient(stack, dhcp.DefaultClientPort)
	}
	s.mu.Unlock()

	addr, ok := s.dhcp(stack)
	if !ok {
		s.queue <- Event{Kind: EventDisconnected}
		return
	}
	stack.SetAddr(addr) // It's important to set the IP address after DHCP completes.
	s.queue <- Event{Kind: EventGotAddr, Addr: addr}
}

// dhcp requests an address; falls back to the requested static address
// if no server answers.
func (s *PicoStation) dhcp(stack *stacks.PortStack) (netip.Addr, bool) {
	dhcpClient := s.dhcpc
	err := beginExclusive(func() error {
		return dhcpClient.BeginRequest(stacks.DHCPRequestConfig{
			RequestedAddr: s.reqAddr,
			Xid:           uint32(time.Now().Nanosecond()),
			Hostname:      s.cfg.Hostname,
		})
	}, portReleaseTries, portReleaseWait, time.Sleep)
	if err != nil {
		s.logger.Error("dhcp request failed", slog.String("err", err.Error()))
		return netip.Addr{}, false
	}
	for i := 0; dhcpClient.State() != dhcp.StateBound; i++ {
		s.logger.Info("DHCP ongoing...")
		time.Sleep(time.Second / 2)
		if i > 15 {
			// release port 68 for the next attempt
			dhcpClient.Abort()
			if !s.reqAddr.IsValid() {
				return netip.Addr{}, false
			}
			s.logger.Info("DHCP did not complete, assigning static IP", slog.String("ip", s.cfg.RequestedIP))
			return s.reqAddr, true
		}
	}
	ip := dhcpClient.Offer()
	s.logger.Info("DHCP complete",
		slog.Uint64("cidrbits", uint64(dhcpClient.CIDRBits())),
		slog.String("ourIP", ip.String()),
		slog.String("gateway", dhcpClient.Gateway().String()),
		slog.String("router", dhcpClient.Router().String()),
		slog.Duration("lease", dhcpClient.IPLeaseTime()),
	)
	return ip, true
}

func nicLoop(dev *cyw43439.Device, Stack *stacks.PortStack) {
	// Maximum number of packets to queue before sending them.
	const (
		queueSize                = 3
		maxRetriesBeforeDropping = 3
	)
	var queue [queueSize][mtu]byte
	var lenBuf [queueSize]int
	var retries [queueSize]int
	markSent := func(i int) {
		lenBuf[i] = 0
		retries[i] = 0
	}
	for {
		stallRx := true
		// Poll for incoming packets.
		gotPacket, err := dev.PollOne()
		if err != nil {
			println("poll error:", err.Error())
		}
		if gotPacket {
			stallRx = false
		}

		// Queue packets to be sent.
		for i := range queue {
			if retries[i] != 0 {
				continue // Packet currently queued for retransmission.
			}
			var err error
			buf := queue[i][:]
			lenBuf[i], err = Stack.HandleEth(buf[:])
			if err != nil {
				println("stack error n(should be 0)=", lenBuf[i], "err=", err.Error())
				lenBuf[i] = 0
				continue
			}
			if lenBuf[i] == 0 {
				break
			}
		}
		stallTx := lenBuf == [queueSize]int{}
		if stallTx {
			if stallRx {
				// Avoid busy waiting when both Rx and Tx stall.
				time.Sleep(51 * time.Millisecond)
			}
			continue
		}

		// Send queued packets.
		for i := range queue {
			n := lenBuf[i]
			if n <= 0 {
				continue
			}
			err := dev.SendEth(queue[i][:n])
			if err != nil {
				// Queue packet for retransmission.
				retries[i]++
				if retries[i] > maxRetriesBeforeDropping {
					markSent(i)
					println("dropped outgoing packet:", err.Error())
				}
			} else {
				markSent(i)
			}
		}
	}
}
