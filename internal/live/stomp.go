package live

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// STOMP 1.2 commands used by the push client.
const (
	CmdConnect     = "CONNECT"
	CmdConnected   = "CONNECTED"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdMessage     = "MESSAGE"
	CmdDisconnect  = "DISCONNECT"
	CmdReceipt     = "RECEIPT"
	CmdError       = "ERROR"
)

// ErrMalformedFrame is returned for data that is not a STOMP frame.
var ErrMalformedFrame = errors.New("stomp: malformed frame")

// HeaderField is one header line.  Order is kept; when a key repeats the
// first occurrence wins.
type HeaderField struct {
	Key   string
	Value string
}

// Frame is a single STOMP frame.  A zero Command denotes a heart-beat.
type Frame struct {
	Command string
	Headers []HeaderField
	Body    []byte
}

// NewFrame builds a frame from alternating header keys and values.
func NewFrame(command string, kv ...string) Frame {
	f := Frame{Command: command}
	for i := 0; i+1 < len(kv); i += 2 {
		f.Headers = append(f.Headers, HeaderField{Key: kv[i], Value: kv[i+1]})
	}
	return f
}

// Header returns the value of key.
func (f Frame) Header(key string) (string, bool) {
	for _, h := range f.Headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// IsHeartbeat reports whether f is an end-of-line keepalive.
func (f Frame) IsHeartbeat() bool { return f.Command == "" }

// CONNECT and CONNECTED frames carry raw header values.
func escapes(command string) bool {
	return command != CmdConnect && command != CmdConnected
}

var (
	headerEscaper   = strings.NewReplacer(`\`, `\\`, "\r", `\r`, "\n", `\n`, ":", `\c`)
	headerUnescaper = strings.NewReplacer(`\\`, `\`, `\r`, "\r", `\n`, "\n", `\c`, ":")
)

// Marshal encodes f in wire form, NUL terminated.  A heart-beat encodes
// as a single newline.
func (f Frame) Marshal() []byte {
	if f.IsHeartbeat() {
		return []byte{'\n'}
	}
	var b bytes.Buffer
	b.WriteString(f.Command)
	b.WriteByte('\n')
	esc := escapes(f.Command)
	for _, h := range f.Headers {
		k, v := h.Key, h.Value
		if esc {
			k, v = headerEscaper.Replace(k), headerEscaper.Replace(v)
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(v)
		b.WriteByte('\n')
	}
	if len(f.Body) > 0 {
		if _, ok := f.Header("content-length"); !ok {
			b.WriteString("content-length:")
			b.WriteString(strconv.Itoa(len(f.Body)))
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
	b.Write(f.Body)
	b.WriteByte(0)
	return b.Bytes()
}

// ParseFrame decodes one frame from a websocket message.  Leading end of
// lines are skipped; a message holding only end of lines is a heart-beat.
func ParseFrame(data []byte) (Frame, error) {
	data = bytes.TrimLeft(data, "\r\n")
	if len(data) == 0 {
		return Frame{}, nil
	}

	line, rest, ok := cutLine(data)
	if !ok || len(line) == 0 {
		return Frame{}, ErrMalformedFrame
	}
	f := Frame{Command: string(line)}
	esc := escapes(f.Command)

	for {
		line, rest, ok = cutLine(rest)
		if !ok {
			return Frame{}, ErrMalformedFrame
		}
		if len(line) == 0 {
			break
		}
		k, v, found := bytes.Cut(line, []byte{':'})
		if !found {
			return Frame{}, ErrMalformedFrame
		}
		key, val := string(k), string(v)
		if esc {
			key, val = headerUnescaper.Replace(key), headerUnescaper.Replace(val)
		}
		f.Headers = append(f.Headers, HeaderField{Key: key, Value: val})
	}

	if cl, ok := f.Header("content-length"); ok {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 || n > len(rest) {
			return Frame{}, ErrMalformedFrame
		}
		f.Body = rest[:n]
		return f, nil
	}
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return Frame{}, ErrMalformedFrame
	}
	f.Body = rest[:end]
	return f, nil
}

// cutLine splits at the first LF, dropping an optional CR before it.
func cutLine(b []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return nil, nil, false
	}
	line = bytes.TrimSuffix(b[:i], []byte{'\r'})
	return line, b[i+1:], true
}
