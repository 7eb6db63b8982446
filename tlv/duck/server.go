package duck

import (
	"context"
	"net"
	"time"

	"github.com/headend/simulcrypt/internal/xlog"
	"github.com/headend/simulcrypt/tlv"
	"github.com/headend/simulcrypt/tlv/tlvconn"
)

// Handler processes one decoded LogSection or LogTable. Server does not
// interpret section/table contents; that is the caller's concern.
type Handler interface {
	HandleLogSection(*LogSection)
	HandleLogTable(*LogTable)
}

// Server accepts duck-log connections and dispatches decoded messages to
// a Handler, demonstrating tlvconn.Conn wired end-to-end against this
// protocol rather than declared and left unused.
type Server struct {
	ln      net.Listener
	handler Handler
	log     *xlog.Logger

	autoErrorResponse bool
	maxInvalidMsg     int
}

// NewServer wraps ln; Serve accepts connections until ln is closed or ctx
// is canceled.
func NewServer(ln net.Listener, handler Handler, log *xlog.Logger) *Server {
	if log == nil {
		log = xlog.Discard()
	}
	return &Server{ln: ln, handler: handler, log: log, maxInvalidMsg: 8}
}

// Serve accepts connections and runs one goroutine per connection until
// ctx is canceled or Accept fails.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.ln.Close() })
	defer stop()
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return err
			}
		}
		go s.serveConn(ctx, nc)
	}
}

func (s *Server) serveConn(ctx context.Context, nc net.Conn) {
	defer nc.Close()
	conn := tlvconn.New(nc, NewProtocol(), s.autoErrorResponse, s.maxInvalidMsg)
	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			s.log.Info("duck connection closed: " + err.Error())
			return
		}
		switch m := msg.(type) {
		case *LogSection:
			s.handler.HandleLogSection(m)
		case *LogTable:
			s.handler.HandleLogTable(m)
		default:
			s.log.Warn("duck server: unexpected message type")
		}
	}
}

// Logger is a duck-log client: it ships LogSection/LogTable messages to a
// collector over one tlvconn.Conn, stamping a SimulCrypt timestamp on
// each send.
type Logger struct {
	conn *tlvconn.Conn
}

// NewLogger wraps nc for sending to a Server.
func NewLogger(nc net.Conn) *Logger {
	return &Logger{conn: tlvconn.New(nc, NewProtocol(), false, 0)}
}

// Close closes the underlying connection.
func (l *Logger) Close() error { return l.conn.Close() }

// LogSection ships a single section, optionally tagged with its PID.
func (l *Logger) LogSection(pid uint16, hasPID bool, section []byte) error {
	msg := &LogSection{
		HasPID:       hasPID,
		PID:          pid,
		HasTimestamp: true,
		Timestamp:    tlv.NewTimestamp(time.Now()),
		Section:      section,
	}
	return l.conn.Send(msg)
}

// LogTable ships a complete table's sections.
func (l *Logger) LogTable(pid uint16, hasPID bool, sections [][]byte) error {
	msg := &LogTable{
		HasPID:       hasPID,
		PID:          pid,
		HasTimestamp: true,
		Timestamp:    tlv.NewTimestamp(time.Now()),
		Sections:     sections,
	}
	return l.conn.Send(msg)
}
