package craftctlproto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/craft-parts-go/pkg/craftctlproto"
)

func TestRequestEncodeParseRoundTrip(t *testing.T) {
	cases := []craftctlproto.Request{
		{Op: craftctlproto.OpDefault},
		{Op: craftctlproto.OpGet, Name: "version"},
		{Op: craftctlproto.OpSet, Name: "version", Value: "2"},
	}
	for _, want := range cases {
		got, err := craftctlproto.ParseRequest(want.Encode())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseRequestRejectsMalformed(t *testing.T) {
	_, err := craftctlproto.ParseRequest("get ")
	assert.Error(t, err)

	_, err = craftctlproto.ParseRequest("set novalue")
	assert.Error(t, err)

	_, err = craftctlproto.ParseRequest("bogus")
	assert.Error(t, err)
}

func TestResponseEncodeParseRoundTrip(t *testing.T) {
	cases := []craftctlproto.Response{
		{OK: true},
		{OK: true, Value: "2"},
		{OK: false, Error: "unknown variable"},
	}
	for _, want := range cases {
		got := craftctlproto.ParseResponse(want.Encode() + "\n")
		assert.Equal(t, want, got)
	}
}
