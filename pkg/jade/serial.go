package jade

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const baudRate = 115200

// usbIDs are the vendor:product ids of the usb-serial bridges shipped with
// the known Jade models.
var usbIDs = map[string]bool{
	"10C4:EA60": true,
	"1A86:55D4": true,
	"303A:4001": true,
	"303A:1001": true,
}

// DetectPort returns the name of the first serial port that looks like a
// Jade device.
func DetectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to list serial ports: %w", err)
	}
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		id := strings.ToUpper(port.VID + ":" + port.PID)
		if usbIDs[id] {
			log.Debugf("jade: found device on port %s", port.Name)
			return port.Name, nil
		}
	}
	return "", fmt.Errorf("no jade device found")
}

// Open opens the serial port, autodetected when empty, and returns a client
// connected to it.
func Open(portName string, opts ClientOpts) (*Client, error) {
	if portName == "" {
		var err error
		if portName, err = DetectPort(); err != nil {
			return nil, err
		}
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return NewClient(port, opts), nil
}
