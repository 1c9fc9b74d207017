package smtp

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/dmitrymomot/relaykit/pkg/mask"
)

// Timeouts bounding every blocking step of the conversation. Cancellation
// inside an established conversation is timeout-only; the caller's context
// governs dialing and the gaps between retry attempts.
const (
	connectTimeout = 10 * time.Second
	commandTimeout = 8 * time.Second
	dataTimeout    = 20 * time.Second
)

// TLSMode identifies how the connection was secured.
type TLSMode string

const (
	TLSModeNone     TLSMode = "none"
	TLSModeSTARTTLS TLSMode = "starttls"
	TLSModeImplicit TLSMode = "tls"
)

// State is the connection lifecycle. A connection is created fresh per
// delivery attempt, owned by exactly one in-flight delivery, and destroyed
// at the end of that attempt; it is never shared or reused.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateCapabilitiesKnown
	StateTLSUpgraded
	StateAuthenticated
	StateSending
	StateClosed
)

// Config holds everything needed to reach and authenticate against a relay.
// The value is immutable per delivery attempt. Credentials are opaque and
// are never written to logs in clear text.
type Config struct {
	Host     string `env:"SMTP_HOST,required"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME,required"`
	Password string `env:"SMTP_PASSWORD,required"`
	Debug    bool   `env:"SMTP_DEBUG" envDefault:"false"`

	// TLSConfig overrides the TLS client configuration. Used by tests
	// against stub servers with self-signed certificates; production
	// deployments leave it nil.
	TLSConfig *tls.Config `env:"-"`

	// forceTLSMode overrides the port-derived negotiation strategy.
	// Tests need it to exercise STARTTLS and implicit TLS against stub
	// servers on ephemeral ports.
	forceTLSMode TLSMode
}

// tlsPolicy selects the negotiation strategy from the port: 465 means
// implicit TLS, 587 means mandatory STARTTLS, anything else stays in
// clear text.
func (c Config) tlsPolicy() TLSMode {
	if c.forceTLSMode != "" {
		return c.forceTLSMode
	}
	switch c.Port {
	case 465:
		return TLSModeImplicit
	case 587:
		return TLSModeSTARTTLS
	default:
		return TLSModeNone
	}
}

// Validate checks the configuration. All fields are required for runtime
// operation to ensure explicit configuration and avoid silent failures in
// production.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: Host is required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: Port must be between 1 and 65535", ErrInvalidConfig)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: Username is required", ErrInvalidConfig)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: Password is required", ErrInvalidConfig)
	}
	return nil
}

// Addr returns the host:port dial target.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Conn is a single SMTP conversation with a relay. It is not safe for
// concurrent use; each delivery worker owns its own Conn.
type Conn struct {
	cfg        Config
	conn       net.Conn
	br         *bufio.Reader
	bw         *bufio.Writer
	serverName string
	caps       Capabilities
	tlsMode    TLSMode
	state      State
	authMethod string
	lastCode   int
	log        *slog.Logger
}

// Connect opens a TCP connection to the relay and negotiates the session up
// to the point where authentication can start: greeting, EHLO, TLS upgrade
// (decided by port), and post-upgrade re-EHLO.
//
// Port 587 requires the server to advertise STARTTLS and upgrades in place.
// Port 465 performs the TLS handshake immediately atop the raw socket and
// never sends a STARTTLS command. Any other port stays in clear text.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	serverName := normalizeHost(cfg.Host)

	dialer := &net.Dialer{Timeout: connectTimeout}
	netConn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(serverName, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Conn{
		cfg:        cfg,
		conn:       netConn,
		serverName: serverName,
		tlsMode:    TLSModeNone,
		state:      StateConnected,
		log:        logger,
	}

	if cfg.tlsPolicy() == TLSModeImplicit {
		// Implicit TLS: handshake first, before any SMTP byte is exchanged.
		if err := c.upgradeTLS(TLSModeImplicit); err != nil {
			c.Close()
			return nil, err
		}
	} else {
		c.br = bufio.NewReader(netConn)
		c.bw = bufio.NewWriter(netConn)
	}

	if err := c.negotiate(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// negotiate runs greeting, EHLO and the port-selected TLS upgrade.
func (c *Conn) negotiate() error {
	greeting, err := c.readReply()
	if err != nil {
		return fmt.Errorf("reading greeting: %w", err)
	}
	if greeting.Code != 220 {
		// The relay refused the session before we said anything; treat as
		// a protocol rejection, not a transient network blip.
		return fmt.Errorf("%w: greeting %d %s", ErrUnexpectedReply, greeting.Code, greeting.Message)
	}

	if err := c.ehlo(); err != nil {
		return err
	}

	if c.cfg.tlsPolicy() == TLSModeSTARTTLS {
		if !c.caps.Has("STARTTLS") {
			return fmt.Errorf("%w: relay did not advertise it", ErrStartTLSNotSupported)
		}
		if err := c.startTLS(); err != nil {
			return err
		}
		// Capabilities commonly differ post-TLS; AUTH in particular is
		// often only advertised on the secured channel.
		if err := c.ehlo(); err != nil {
			return err
		}
	}

	return nil
}

// ehlo sends EHLO and re-derives the capability set from the reply.
func (c *Conn) ehlo() error {
	reply, err := c.cmd("EHLO "+c.serverName, "")
	if err != nil {
		return err
	}
	if reply.Code != 250 {
		return fmt.Errorf("%w: EHLO rejected with %d %s", ErrUnexpectedReply, reply.Code, reply.Message)
	}
	c.caps = parseCapabilities(reply)
	if c.state == StateConnected {
		c.state = StateCapabilitiesKnown
	}
	return nil
}

// startTLS issues STARTTLS and performs the handshake in place on the
// existing socket. At most one TLS upgrade happens per connection.
func (c *Conn) startTLS() error {
	if c.tlsMode != TLSModeNone {
		return ErrTLSAlreadyActive
	}

	reply, err := c.cmd("STARTTLS", "")
	if err != nil {
		return err
	}
	if reply.Code != 220 {
		return fmt.Errorf("%w: STARTTLS rejected with %d %s", ErrTLSHandshakeFailed, reply.Code, reply.Message)
	}

	return c.upgradeTLS(TLSModeSTARTTLS)
}

// upgradeTLS wraps the current socket in TLS and swaps the buffered
// reader/writer pair onto the secured connection.
func (c *Conn) upgradeTLS(mode TLSMode) error {
	tlsCfg := c.cfg.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{}
	}
	if tlsCfg.ServerName == "" {
		tlsCfg = tlsCfg.Clone()
		tlsCfg.ServerName = c.serverName
	}

	tlsConn := tls.Client(c.conn, tlsCfg)
	_ = tlsConn.SetDeadline(time.Now().Add(connectTimeout))
	if err := tlsConn.Handshake(); err != nil {
		return fmt.Errorf("%w: %v", ErrTLSHandshakeFailed, err)
	}
	_ = tlsConn.SetDeadline(time.Time{})

	c.conn = tlsConn
	c.br = bufio.NewReader(tlsConn)
	c.bw = bufio.NewWriter(tlsConn)
	c.tlsMode = mode
	if c.state == StateCapabilitiesKnown {
		c.state = StateTLSUpgraded
	}
	return nil
}

// cmd writes one command line and reads the full reply, both under the
// per-command deadline. logAs replaces the command in debug logs when the
// line carries credentials; an empty logAs logs the command as-is.
func (c *Conn) cmd(command, logAs string) (*Reply, error) {
	if c.state == StateClosed || c.conn == nil {
		return nil, ErrConnClosed
	}

	_ = c.conn.SetDeadline(time.Now().Add(commandTimeout))

	if c.cfg.Debug {
		line := command
		if logAs != "" {
			line = logAs
		}
		c.log.Debug("smtp trace", "dir", "C", "line", line)
	}

	if _, err := c.bw.WriteString(command + "\r\n"); err != nil {
		return nil, fmt.Errorf("writing command: %w", err)
	}
	if err := c.bw.Flush(); err != nil {
		return nil, fmt.Errorf("writing command: %w", err)
	}

	return c.readReply()
}

func (c *Conn) readReply() (*Reply, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(commandTimeout))

	reply, err := ReadReply(c.br)
	if err != nil {
		return nil, err
	}
	c.lastCode = reply.Code

	if c.cfg.Debug {
		for _, line := range reply.Lines {
			c.log.Debug("smtp trace", "dir", "S", "code", reply.Code, "line", line)
		}
	}
	return reply, nil
}

// MailFrom starts a mail transaction. Requires an authenticated session.
func (c *Conn) MailFrom(addr string) error {
	if err := c.requireAuthenticated(); err != nil {
		return err
	}
	reply, err := c.cmd("MAIL FROM:<"+addr+">", "")
	if err != nil {
		return err
	}
	if !reply.IsSuccess() {
		return reply.Err()
	}
	return nil
}

// RcptTo adds a recipient to the open transaction. Requires an
// authenticated session.
func (c *Conn) RcptTo(addr string) error {
	if err := c.requireAuthenticated(); err != nil {
		return err
	}
	reply, err := c.cmd("RCPT TO:<"+addr+">", "")
	if err != nil {
		return err
	}
	if !reply.IsSuccess() {
		return reply.Err()
	}
	return nil
}

// Data transmits the composed message. The wire bytes must already be CRLF
// normalized; dot-stuffing and the closing "\r\n.\r\n" terminator are
// applied here, under the transfer deadline.
func (c *Conn) Data(wire []byte) error {
	if err := c.requireAuthenticated(); err != nil {
		return err
	}

	reply, err := c.cmd("DATA", "")
	if err != nil {
		return err
	}
	if !reply.IsIntermediate() {
		return fmt.Errorf("%w: DATA rejected with %d %s", ErrUnexpectedReply, reply.Code, reply.Message)
	}

	c.state = StateSending
	_ = c.conn.SetDeadline(time.Now().Add(dataTimeout))

	stuffed := DotStuff(wire)
	if _, err := c.bw.Write(stuffed); err != nil {
		return fmt.Errorf("writing message data: %w", err)
	}
	if len(stuffed) < 2 || stuffed[len(stuffed)-2] != '\r' || stuffed[len(stuffed)-1] != '\n' {
		if _, err := c.bw.WriteString("\r\n"); err != nil {
			return fmt.Errorf("writing message data: %w", err)
		}
	}
	if _, err := c.bw.WriteString(".\r\n"); err != nil {
		return fmt.Errorf("writing message data: %w", err)
	}
	if err := c.bw.Flush(); err != nil {
		return fmt.Errorf("writing message data: %w", err)
	}

	final, err := c.readReply()
	if err != nil {
		return err
	}
	c.state = StateAuthenticated
	if !final.IsSuccess() {
		return final.Err()
	}
	return nil
}

// Quit ends the session politely. Errors are ignored: the message outcome
// is already decided and some servers close the socket right after DATA.
func (c *Conn) Quit() {
	if c.state == StateClosed || c.conn == nil {
		return
	}
	_, _ = c.cmd("QUIT", "")
}

// Close tears down the socket. Safe to call multiple times.
func (c *Conn) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.state = StateClosed
	return err
}

func (c *Conn) requireAuthenticated() error {
	switch c.state {
	case StateAuthenticated, StateSending:
		return nil
	case StateClosed:
		return ErrConnClosed
	default:
		return ErrNotAuthenticated
	}
}

// Capabilities returns the current capability set (post-TLS when an upgrade
// happened).
func (c *Conn) Capabilities() Capabilities { return c.caps }

// TLSMode returns how the connection was secured.
func (c *Conn) TLSMode() TLSMode { return c.tlsMode }

// AuthMethod returns the mechanism that authenticated the session, if any.
func (c *Conn) AuthMethod() string { return c.authMethod }

// LastReplyCode returns the code of the most recent server reply.
func (c *Conn) LastReplyCode() int { return c.lastCode }

// State returns the connection lifecycle state.
func (c *Conn) State() State { return c.state }

// maskedUsername is the redacted form of the configured username used in
// diagnostics.
func (c *Conn) maskedUsername() string {
	return mask.Username(c.cfg.Username)
}

// normalizeHost lowercases the relay hostname and converts IDN names to
// their ASCII (punycode) form for dialing and TLS SNI. Invalid input is
// passed through; the dialer will reject it with a proper error.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return host
}
