package proxy

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSocksClient(t *testing.T) {
	c, err := NewSocksClient("127.0.0.1:8888", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.Timeout)

	c, err = NewSocksClient("127.0.0.1:8888", 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, c.Timeout)
}

func TestNewSocksClient_EmptyAddress(t *testing.T) {
	_, err := NewSocksClient("", time.Second)
	assert.Error(t, err)
}

func TestNewSocksClient_ProxyDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	c, err := NewSocksClient(addr, 2*time.Second)
	require.NoError(t, err)
	_, err = c.Get("http://example.invalid/")
	assert.Error(t, err)
}
