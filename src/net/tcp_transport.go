package net

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	errNotAdvertisable = errors.New("local bind address is not advertisable")
	errNotTCP          = errors.New("local address is not a TCP address")
)

// StreamLayer is the connection layer under a NetworkTransport: a listener
// for inbound connections and a dialer for outbound ones.
type StreamLayer interface {
	net.Listener

	// DialContext opens an outgoing connection. ctx bounds the dial only.
	DialContext(ctx context.Context, address string) (net.Conn, error)

	// AdvertiseAddr returns the address peers should use to reach us
	AdvertiseAddr() string
}

// TCPStreamLayer implements StreamLayer for plain TCP.
type TCPStreamLayer struct {
	advertise string
	listener  *net.TCPListener
	dialer    net.Dialer
}

// DialContext implements the StreamLayer interface.
func (t *TCPStreamLayer) DialContext(ctx context.Context, address string) (net.Conn, error) {
	return t.dialer.DialContext(ctx, "tcp", address)
}

// Accept implements the net.Listener interface.
func (t *TCPStreamLayer) Accept() (net.Conn, error) {
	return t.listener.Accept()
}

// Close implements the net.Listener interface.
func (t *TCPStreamLayer) Close() error {
	return t.listener.Close()
}

// Addr implements the net.Listener interface.
func (t *TCPStreamLayer) Addr() net.Addr {
	return t.listener.Addr()
}

// AdvertiseAddr implements the StreamLayer interface.
func (t *TCPStreamLayer) AdvertiseAddr() string {
	if t.advertise != "" {
		return t.advertise
	}
	return t.listener.Addr().String()
}

// NewTCPStreamLayer binds bindAddr. The advertise address, or the bound one
// when advertise is empty, must be a TCP address peers can dial.
func NewTCPStreamLayer(bindAddr, advertise string) (*TCPStreamLayer, error) {
	list, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}

	advertised := list.Addr()
	if advertise != "" {
		if advertised, err = net.ResolveTCPAddr("tcp", advertise); err != nil {
			list.Close()
			return nil, err
		}
	}

	addr, ok := advertised.(*net.TCPAddr)
	if !ok {
		list.Close()
		return nil, errNotTCP
	}
	if addr.IP.IsUnspecified() {
		list.Close()
		return nil, errNotAdvertisable
	}

	return &TCPStreamLayer{
		advertise: advertise,
		listener:  list.(*net.TCPListener),
	}, nil
}

// NewTCPTransport returns a NetworkTransport over a TCPStreamLayer bound to
// bindAddr. The transport is not accepting connections until Listen.
func NewTCPTransport(
	bindAddr string,
	advertise string,
	maxPool int,
	timeout time.Duration,
	logger *logrus.Entry,
) (*NetworkTransport, error) {
	stream, err := NewTCPStreamLayer(bindAddr, advertise)
	if err != nil {
		return nil, err
	}
	return NewNetworkTransport(stream, maxPool, timeout, logger), nil
}
