package pcapdriver

import (
	"fmt"
	"net"
)

func deviceMAC(device string) ([6]byte, error) {
	var mac [6]byte
	ifi, err := net.InterfaceByName(device)
	if err != nil {
		return mac, fmt.Errorf("pcapdriver: lookup interface %q: %w", device, err)
	}
	copy(mac[:], ifi.HardwareAddr)
	return mac, nil
}
