package main

import (
	"bufio"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/solganik/procstat"
)

// errNoCPULine mirrors the sibling consumption tool's ErrNoCPU: /proc/stat
// is expected to carry an aggregate "cpu" line on every Linux kernel this
// binary targets.
var errNoCPULine = errors.New("procstatd: no aggregate cpu line in /proc/stat")

// readUserCPUJiffies reads the "user" jiffies counter off /proc/stat's
// aggregate cpu line (the first field after "cpu"). It's a monotonic
// counter; callers feed successive raw readings straight into a u64
// series, so the series' min/max/last describe the cumulative counter, and
// no delta between readings is computed here or by the series.
func readUserCPUJiffies() (uint64, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[0] != "cpu" {
			continue
		}
		return strconv.ParseUint(fields[1], 10, 64)
	}
	return 0, errNoCPULine
}

// pollUserCPU feeds readUserCPUJiffies into series once per tick until
// stop is closed.
func pollUserCPU(series *procstat.U64Series, tick <-chan struct{}, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-tick:
			if v, err := readUserCPUJiffies(); err == nil {
				procstat.AddU64Point(series, v)
			}
		}
	}
}
