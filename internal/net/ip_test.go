package net

import (
	"net"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestOutgoingIPIsIPv4(t *testing.T) {
	ip := net.ParseIP(OutgoingIP())
	assert.NotEqual(t, nil, ip)
	assert.NotEqual(t, nil, ip.To4())
}

func TestFirstIPv4Fallback(t *testing.T) {
	ip := net.ParseIP(firstIPv4())
	assert.NotEqual(t, nil, ip.To4())
}
