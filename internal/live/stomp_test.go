package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameMarshal(t *testing.T) {
	f := NewFrame(CmdSubscribe, "id", "sub-0", "destination", "/seat-map/m:1")
	assert.Equal(t, "SUBSCRIBE\nid:sub-0\ndestination:/seat-map/m\\c1\n\n\x00", string(f.Marshal()))

	connect := NewFrame(CmdConnect, "accept-version", "1.2", "host", "push:8080")
	assert.Equal(t, "CONNECT\naccept-version:1.2\nhost:push:8080\n\n\x00", string(connect.Marshal()),
		"CONNECT headers are not escaped")

	msg := Frame{Command: CmdMessage, Body: []byte(`["A_0_1"]`)}
	assert.Equal(t, "MESSAGE\ncontent-length:9\n\n[\"A_0_1\"]\x00", string(msg.Marshal()))

	assert.Equal(t, "\n", string(Frame{}.Marshal()))
}

func TestParseFrame(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		command string
		headers []HeaderField
		body    string
	}{
		{
			name:    "message with body",
			in:      "MESSAGE\nsubscription:sub-0\ndestination:/seat-map/m1\n\n[\"A_0_1\"]\x00",
			command: CmdMessage,
			headers: []HeaderField{{"subscription", "sub-0"}, {"destination", "/seat-map/m1"}},
			body:    `["A_0_1"]`,
		},
		{
			name:    "crlf and leading heart-beats",
			in:      "\r\n\nCONNECTED\r\nversion:1.2\r\nheart-beat:0,0\r\n\r\n\x00\n",
			command: CmdConnected,
			headers: []HeaderField{{"version", "1.2"}, {"heart-beat", "0,0"}},
		},
		{
			name:    "escaped header",
			in:      "ERROR\nmessage:bad\\cthing\\nhere\n\n\x00",
			command: CmdError,
			headers: []HeaderField{{"message", "bad:thing\nhere"}},
		},
		{
			name:    "content-length body may hold NUL",
			in:      "MESSAGE\ncontent-length:3\n\na\x00b\x00",
			command: CmdMessage,
			headers: []HeaderField{{"content-length", "3"}},
			body:    "a\x00b",
		},
		{
			name: "heart-beat",
			in:   "\r\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseFrame([]byte(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.command, f.Command)
			assert.Equal(t, tc.headers, f.Headers)
			assert.Equal(t, tc.body, string(f.Body))
		})
	}
}

func TestParseFrameRejectsGarbage(t *testing.T) {
	for _, in := range []string{
		"MESSAGE",
		"MESSAGE\nno-colon\n\n\x00",
		"MESSAGE\n\nunterminated",
		"MESSAGE\ncontent-length:99\n\nshort\x00",
		"MESSAGE\ncontent-length:-1\n\n\x00",
	} {
		_, err := ParseFrame([]byte(in))
		assert.ErrorIs(t, err, ErrMalformedFrame, "%q", in)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	in := NewFrame(CmdMessage, "destination", "/seat-map/a\\b", "x", "line\nbreak")
	in.Body = []byte(`["t1"]`)
	out, err := ParseFrame(in.Marshal())
	require.NoError(t, err)

	dest, _ := out.Header("destination")
	assert.Equal(t, "/seat-map/a\\b", dest)
	x, _ := out.Header("x")
	assert.Equal(t, "line\nbreak", x)
	assert.Equal(t, `["t1"]`, string(out.Body))
}

func TestNegotiateHeartbeat(t *testing.T) {
	cases := []struct {
		client       time.Duration
		server       string
		send, expect time.Duration
	}{
		{10 * time.Second, "0,0", 0, 0},
		{10 * time.Second, "5000,20000", 20 * time.Second, 10 * time.Second},
		{10 * time.Second, "30000,1000", 10 * time.Second, 30 * time.Second},
		{0, "5000,5000", 0, 0},
		{10 * time.Second, "", 0, 0},
		{10 * time.Second, "x,1", 0, 0},
	}
	for _, tc := range cases {
		send, expect := negotiateHeartbeat(tc.client, tc.server)
		assert.Equal(t, tc.send, send, "send for %q", tc.server)
		assert.Equal(t, tc.expect, expect, "expect for %q", tc.server)
	}
}
