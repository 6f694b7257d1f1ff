package helper

import (
	"golang.org/x/sys/unix"
)

// capNetRaw is the CAP_NET_RAW bit in the effective capability set.
const capNetRaw = 1 << 13

// CanUseRawSockets reports whether the process may open raw ICMP sockets,
// either because it runs as root or because it holds CAP_NET_RAW.
func CanUseRawSockets() bool {
	if unix.Geteuid() == 0 {
		return true
	}

	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_3}
	var data unix.CapUserData
	if err := unix.Capget(&hdr, &data); err != nil {
		return false
	}
	return data.Effective&capNetRaw != 0
}
