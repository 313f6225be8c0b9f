package transport

import (
	"context"
	"net"

	"github.com/metricsd/metricsd/internal/connio"
)

// udpMaxPacketSize mirrors the teacher's own constant: the practical upper
// bound on a single UDP datagram.
const udpMaxPacketSize = 64 * 1024

// Logger is the minimal logging surface the listeners need.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Hooks lets the caller observe connection and packet lifecycle events for
// self-telemetry, without the listeners importing internal/telemetry
// directly.
type Hooks struct {
	OnTCPConnOpen    func()
	OnTCPConnClose   func()
	OnUDPPacket      func(n int)
	OnUDPDrop        func()
	OnSampleAccepted func()
}

// ListenUDP accepts datagrams on addr until ctx is cancelled, feeding each
// one through a fresh BufStream and connio.Driver — one per source address
// would be more faithful to a connection-oriented transport, but statsd
// traffic over UDP is connectionless, so (per the teacher's own udpListen)
// every packet is parsed independently through a short-lived stream.
func ListenUDP(ctx context.Context, addr string, sink connio.Sink, log Logger, hooks Hooks) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	log.Infof("UDP listening on %q", conn.LocalAddr().String())

	buf := make([]byte, udpMaxPacketSize)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Errorf("udp read: %v", err)
				continue
			}
		}
		if hooks.OnUDPPacket != nil {
			hooks.OnUDPPacket(n)
		}

		stream := &BufStream{}
		stream.Feed(buf[:n])
		driver := connio.New(stream, sink)
		driver.OnAccepted = hooks.OnSampleAccepted
		if err := driver.Drive(); err != nil {
			log.Errorf("udp packet from %s: %v", src, err)
		}
	}
}

// ListenTCP accepts connections on addr until ctx is cancelled, driving
// each one on its own goroutine through a persistent BufStream and
// connio.Driver, mirroring the teacher's tcpListen/handler split (accept
// loop spawns one handler goroutine per connection; the handler reads
// until a read error such as EOF, or until the driver reports a parse or
// framing error).
func ListenTCP(ctx context.Context, addr string, sink connio.Sink, log Logger, hooks Hooks) error {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return err
	}
	listener, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return err
	}
	defer listener.Close()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	log.Infof("TCP listening on %q", listener.Addr().String())

	for {
		conn, err := listener.AcceptTCP()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go handleTCP(conn, sink, log, hooks)
	}
}

func handleTCP(conn *net.TCPConn, sink connio.Sink, log Logger, hooks Hooks) {
	if hooks.OnTCPConnOpen != nil {
		hooks.OnTCPConnOpen()
	}
	defer func() {
		conn.Close()
		if hooks.OnTCPConnClose != nil {
			hooks.OnTCPConnClose()
		}
	}()

	stream := &BufStream{}
	driver := connio.New(stream, sink)
	driver.OnAccepted = hooks.OnSampleAccepted

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			stream.Feed(buf[:n])
			if driveErr := driver.Drive(); driveErr != nil {
				log.Errorf("tcp connection from %s: %v", conn.RemoteAddr(), driveErr)
				return
			}
		}
		if err != nil {
			return
		}
	}
}
