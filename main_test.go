package main

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestListenPort(t *testing.T) {
	port, err := listenPort(":8080")
	assert.Equal(t, err, nil)
	assert.Equal(t, port, 8080)

	port, err = listenPort("192.168.1.4:9000")
	assert.Equal(t, err, nil)
	assert.Equal(t, port, 9000)

	_, err = listenPort("no-port")
	assert.NotEqual(t, err, nil)
}

func TestShareURL(t *testing.T) {
	assert.Equal(t, shareURL("192.168.1.4:8080"), "ws://192.168.1.4:8080/room")

	// Wildcard binds get rewritten to an address peers can reach.
	u := shareURL(":8080")
	assert.Equal(t, strings.HasPrefix(u, "ws://"), true)
	assert.Equal(t, strings.HasSuffix(u, ":8080/room"), true)
	assert.Equal(t, strings.Contains(u, "//:"), false)
}
