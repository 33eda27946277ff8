// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// Sizes of struct can_frame and struct canfd_frame.
	classicFrameSize = 16
	fdFrameSize      = 72
	frameHeaderSize  = 8

	// readPollInterval bounds how long ReadFrame blocks in the kernel
	// before rechecking its context.
	readPollInterval = 100 * time.Millisecond
)

// Compile-time interface checks.
var (
	_ FrameSource = (*SocketCAN)(nil)
	_ FrameSink   = (*SocketCAN)(nil)
)

// SocketCAN is a raw CAN_RAW socket bound to one interface.
type SocketCAN struct {
	fd  int
	mtu int

	closeOnce sync.Once
}

// OpenSocketCAN binds a raw CAN socket to the named interface
// ("can0", "vcan0"). With mtu == MTUFD the socket also accepts and
// sends CAN FD frames; the interface must be configured for FD.
func OpenSocketCAN(name string, mtu int) (*SocketCAN, error) {
	if mtu != MTUClassic && mtu != MTUFD {
		return nil, fmt.Errorf("socketcan: unsupported MTU %d", mtu)
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("socketcan: looking up %s: %w", name, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("socketcan: socket: %w", err)
	}
	if mtu == MTUFD {
		if err := unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FD_FRAMES, 1); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("socketcan: enabling FD frames on %s: %w", name, err)
		}
	}
	timeout := unix.NsecToTimeval(readPollInterval.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &timeout); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: setting receive timeout: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: binding %s: %w", name, err)
	}
	return &SocketCAN{fd: fd, mtu: mtu}, nil
}

// ReadFrame returns the next extended data frame. Standard-ID, remote
// and error frames are skipped.
func (s *SocketCAN) ReadFrame(ctx context.Context) (Frame, error) {
	buffer := make([]byte, fdFrameSize)
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		n, err := unix.Read(s.fd, buffer)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			return Frame{}, fmt.Errorf("socketcan: read: %w", err)
		}
		if n != classicFrameSize && n != fdFrameSize {
			continue
		}

		rawID := binary.NativeEndian.Uint32(buffer[0:4])
		if rawID&unix.CAN_EFF_FLAG == 0 || rawID&(unix.CAN_RTR_FLAG|unix.CAN_ERR_FLAG) != 0 {
			continue
		}
		length := int(buffer[4])
		if length > n-frameHeaderSize {
			continue
		}
		data := make([]byte, length)
		copy(data, buffer[frameHeaderSize:frameHeaderSize+length])
		return Frame{ID: rawID & unix.CAN_EFF_MASK, Data: data}, nil
	}
}

// WriteFrame transmits frame. Frames longer than 8 bytes require the
// socket to have been opened with MTUFD.
func (s *SocketCAN) WriteFrame(_ context.Context, frame Frame) error {
	if len(frame.Data) > s.mtu {
		return fmt.Errorf("socketcan: %d-byte frame exceeds MTU %d", len(frame.Data), s.mtu)
	}
	size := classicFrameSize
	if len(frame.Data) > MTUClassic {
		size = fdFrameSize
	}
	buffer := make([]byte, size)
	binary.NativeEndian.PutUint32(buffer[0:4], frame.ID&unix.CAN_EFF_MASK|unix.CAN_EFF_FLAG)
	buffer[4] = byte(len(frame.Data))
	copy(buffer[frameHeaderSize:], frame.Data)
	if _, err := unix.Write(s.fd, buffer); err != nil {
		return fmt.Errorf("socketcan: write: %w", err)
	}
	return nil
}

// Close releases the socket.
func (s *SocketCAN) Close() error {
	var err error
	s.closeOnce.Do(func() { err = unix.Close(s.fd) })
	return err
}
