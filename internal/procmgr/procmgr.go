// Package procmgr implements the Process Manager screen: listing and
// killing OS processes, behind the §6 "OS process enumeration" external
// collaborator boundary.
package procmgr

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	gopsprocess "github.com/shirou/gopsutil/v4/process"
)

// Info is one row in the process list, the structured fields gopsutil
// gives directly in place of the teacher's `ps`-line-column parsing.
type Info struct {
	PID     int32
	Name    string
	Cmdline string
	RSSKb   uint64
	CPUPct  float64
}

// List returns all visible processes sorted by PID, matching the
// teacher's proc_manager.go column-free design: callers never parse a
// formatted line, they index by PID directly.
func List() ([]Info, error) {
	procs, err := gopsprocess.Processes()
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate processes")
	}

	out := make([]Info, 0, len(procs))
	for _, p := range procs {
		name, _ := p.Name()
		cmdline, _ := p.Cmdline()
		mem, _ := p.MemoryInfo()
		cpu, _ := p.CPUPercent()

		info := Info{PID: p.Pid, Name: name, Cmdline: cmdline, CPUPct: cpu}
		if mem != nil {
			info.RSSKb = mem.RSS / 1024
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

// Kill terminates the process with the given PID, grounded on the
// teacher's killPID but through gopsutil's process handle instead of
// os.FindProcess + a bare signal.
func Kill(pid int32) error {
	p, err := gopsprocess.NewProcess(pid)
	if err != nil {
		return errors.Wrapf(err, "failed to look up process %d", pid)
	}
	if err := p.Kill(); err != nil {
		return errors.Wrapf(err, "failed to kill process %d", pid)
	}
	return nil
}

// Filter returns the subset of infos whose name or cmdline contains
// query (case-insensitive), the search box backing the Process Manager
// screen.
func Filter(infos []Info, query string) []Info {
	if query == "" {
		return infos
	}
	q := strings.ToLower(query)
	out := make([]Info, 0, len(infos))
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name), q) || strings.Contains(strings.ToLower(info.Cmdline), q) {
			out = append(out, info)
		}
	}
	return out
}
