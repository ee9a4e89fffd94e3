package realtime

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

const wsGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

const (
	opText  = 0x1
	opClose = 0x8
	opPing  = 0x9
	opPong  = 0xA
)

// maxFramePayload caps inbound frames; clients only ever send small control events.
const maxFramePayload = 64 << 10

// controlWriteTimeout bounds pong and close frames written outside WritePump.
const controlWriteTimeout = time.Second

var (
	ErrFragmented        = errors.New("fragmented frames are not supported")
	ErrUnsupportedOp     = errors.New("unsupported websocket opcode")
	ErrFrameTooLarge     = errors.New("websocket frame too large")
	ErrNotWebSocket      = errors.New("not a websocket upgrade request")
	ErrHijackUnsupported = errors.New("connection does not support hijacking")
)

// Conn is a minimal WebSocket connection supporting text frames.
// Reads must come from a single goroutine; writes are serialized.
type Conn struct {
	conn net.Conn
	wmu  sync.Mutex
}

// NewConn wraps an already upgraded network connection.
func NewConn(c net.Conn) *Conn {
	return &Conn{conn: c}
}

func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	if !headerContains(r.Header, "Connection", "upgrade") || !headerContains(r.Header, "Upgrade", "websocket") {
		return nil, ErrNotWebSocket
	}
	key := r.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		return nil, errors.New("missing websocket key")
	}
	hj, ok := w.(http.Hijacker)
	if !ok {
		return nil, ErrHijackUnsupported
	}
	rawConn, buf, err := hj.Hijack()
	if err != nil {
		return nil, err
	}

	accept := computeAcceptKey(key)
	if _, err := fmt.Fprintf(buf, "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Accept: %s\r\n\r\n", accept); err != nil {
		rawConn.Close()
		return nil, err
	}
	if err := buf.Flush(); err != nil {
		rawConn.Close()
		return nil, err
	}
	return NewConn(rawConn), nil
}

func headerContains(h http.Header, name, token string) bool {
	for _, v := range h.Values(name) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}

func computeAcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key + wsGUID))
	sum := h.Sum(nil)
	return base64.StdEncoding.EncodeToString(sum)
}

func (c *Conn) ReadJSON(v interface{}) error {
	payload, err := c.readFrame()
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	return sonic.Unmarshal(payload, v)
}

func (c *Conn) WriteJSON(v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return c.WriteText(data, 0)
}

// WriteText sends one text frame. A positive timeout bounds the write.
func (c *Conn) WriteText(data []byte, timeout time.Duration) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	return c.writeFrame(opText, data)
}

func (c *Conn) Close() error {
	c.wmu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(controlWriteTimeout))
	_ = c.writeFrame(opClose, []byte{})
	c.wmu.Unlock()
	return c.conn.Close()
}

func (c *Conn) readFrame() ([]byte, error) {
	for {
		header := make([]byte, 2)
		if _, err := io.ReadFull(c.conn, header); err != nil {
			return nil, err
		}
		fin := header[0]&0x80 != 0
		opcode := header[0] & 0x0F
		masked := header[1]&0x80 != 0
		length := uint64(header[1] & 0x7F)

		if length == 126 {
			ext := make([]byte, 2)
			if _, err := io.ReadFull(c.conn, ext); err != nil {
				return nil, err
			}
			length = uint64(binary.BigEndian.Uint16(ext))
		} else if length == 127 {
			ext := make([]byte, 8)
			if _, err := io.ReadFull(c.conn, ext); err != nil {
				return nil, err
			}
			length = binary.BigEndian.Uint64(ext)
		}
		if length > maxFramePayload {
			return nil, ErrFrameTooLarge
		}

		var maskKey [4]byte
		if masked {
			if _, err := io.ReadFull(c.conn, maskKey[:]); err != nil {
				return nil, err
			}
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			return nil, err
		}

		if masked {
			for i := range payload {
				payload[i] ^= maskKey[i%4]
			}
		}

		switch opcode {
		case opClose:
			return nil, io.EOF
		case opPing:
			c.wmu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(controlWriteTimeout))
			err := c.writeFrame(opPong, payload)
			_ = c.conn.SetWriteDeadline(time.Time{})
			c.wmu.Unlock()
			if err != nil {
				return nil, err
			}
			continue
		case opPong:
			continue
		}
		if !fin {
			return nil, ErrFragmented
		}
		if opcode != opText {
			return nil, ErrUnsupportedOp
		}
		return payload, nil
	}
}

// writeFrame expects wmu to be held.
func (c *Conn) writeFrame(opcode byte, payload []byte) error {
	header := []byte{0x80 | opcode}
	length := len(payload)
	if length < 126 {
		header = append(header, byte(length))
	} else if length <= 0xFFFF {
		header = append(header, 126)
		ext := make([]byte, 2)
		binary.BigEndian.PutUint16(ext, uint16(length))
		header = append(header, ext...)
	} else {
		header = append(header, 127)
		ext := make([]byte, 8)
		binary.BigEndian.PutUint64(ext, uint64(length))
		header = append(header, ext...)
	}

	if _, err := c.conn.Write(header); err != nil {
		return err
	}
	if length > 0 {
		if _, err := c.conn.Write(payload); err != nil {
			return err
		}
	}
	return nil
}
