package xnsconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnsstack/xnsd/internal/wire"
)

func TestParseHostValue(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    wire.Host
		wantErr bool
	}{
		{"octal lowercase", "1000b", wire.Host(0o1000), false},
		{"octal uppercase", "777B", wire.Host(0o777), false},
		{"hex full", "aa:bb:cc:dd:ee:ff", wire.Host(0xAABBCCDDEEFF), false},
		{"hex single digit octets", "a:b:c:d:e:f", wire.Host(0x0A0B0C0D0E0F), false},
		{"decimal four groups", "2-52-0-1", wire.Host(0x0002340001), false},
		{"decimal five groups", "1-2-52-0-1", wire.Host(0x0102340001), false},
		{"empty", "", wire.HostUnknown, true},
		{"hex wrong count", "aa:bb:cc", wire.HostUnknown, true},
		{"decimal out of range", "256-0-0-0", wire.HostUnknown, true},
		{"decimal wrong count", "1-2-3", wire.HostUnknown, true},
		{"garbage", "not-a-host", wire.HostUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHostValue(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHostValueJSONRoundTrip(t *testing.T) {
	v := HostValue(wire.Host(0xAABBCCDDEEFF))
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `"aa:bb:cc:dd:ee:ff"`, string(data))

	var out HostValue
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, v, out)
}

func TestHostValueUnmarshalRejectsNonString(t *testing.T) {
	var v HostValue
	assert.Error(t, json.Unmarshal([]byte("123"), &v))
}
