package health

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// SystemAvailableBytes reports the host's available memory, best effort.
// It is distinct from a process's own heap usage (runtime.ReadMemStats)
// deliberately: the two numbers answer different questions ("can the OS
// give this process more memory" vs "how much has this process already
// allocated") and must never be conflated into a single gauge.
//
// On Linux this reads MemAvailable from /proc/meminfo. On any other
// platform, or if the file cannot be read or parsed, it returns
// (0, false) rather than guessing.
func SystemAvailableBytes() (bytes uint64, ok bool) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return kb * 1024, true
	}
	return 0, false
}
