package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_SSHAuth(t *testing.T) {
	p := New(nil)

	accepted := "Jan 15 10:23:45 server sshd[1234]: Accepted password for alice from 203.0.113.7 port 22 user alice"
	e, ok := p.ParseLine(accepted, "")
	require.True(t, ok)
	assert.Equal(t, "203.0.113.7", e.SourceIP)
	assert.Equal(t, "alice", e.Username)
	assert.Equal(t, "success", e.Status)
	assert.Equal(t, "login", e.EventType)

	failed := "Jan 15 10:24:00 server sshd[1234]: Failed password for bob from 203.0.113.7 port 22 user bob"
	e2, ok := p.ParseLine(failed, "")
	require.True(t, ok)
	assert.Equal(t, "failed", e2.Status)
	assert.Equal(t, "login", e2.EventType)
}

func TestParseLine_SimpleLog(t *testing.T) {
	p := New(nil)

	e, ok := p.ParseLine("2024-05-01T10:00:00 203.0.113.7 alice login failed", "")
	require.True(t, ok)
	assert.Equal(t, "203.0.113.7", e.SourceIP)
	assert.Equal(t, "alice", e.Username)
	assert.Equal(t, "login", e.EventType)
	assert.Equal(t, "failed", e.Status)
}

func TestParseLine_BareIPFallback(t *testing.T) {
	p := New(nil)

	e, ok := p.ParseLine("something unstructured happened near 198.51.100.23 just now", "")
	require.True(t, ok)
	assert.Equal(t, "198.51.100.23", e.SourceIP)
	assert.Equal(t, "unknown", e.EventType)
	assert.Equal(t, "unknown", e.Status)
}

func TestParseLine_Blank(t *testing.T) {
	p := New(nil)
	_, ok := p.ParseLine("   ", "")
	assert.False(t, ok)
}

func TestParseLine_Unparseable(t *testing.T) {
	p := New(nil)
	_, ok := p.ParseLine("no ip address or structure in this line whatsoever", "")
	assert.False(t, ok)
}

func TestParseLine_LowercasesStatusAndEventType(t *testing.T) {
	p := New(nil)
	e, ok := p.ParseLine("2024-05-01T10:00:00 203.0.113.7 alice LOGIN FAILED", "")
	require.True(t, ok)
	assert.Equal(t, "login", e.EventType)
	assert.Equal(t, "failed", e.Status)
}

func TestParseLine_SourceFileTagged(t *testing.T) {
	p := New(nil)
	e, ok := p.ParseLine("2024-05-01T10:00:00 203.0.113.7 alice login failed", "auth.log")
	require.True(t, ok)
	assert.Equal(t, "auth.log", e.SourceFile)
}
