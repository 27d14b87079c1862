// Package simulated provides an in-process target and assistant used
// by tests and demo runs. It models just enough device behavior to
// exercise the session manager: liveness loss, hard-reset recovery,
// CPU hotplug, and a tiny command vocabulary.
package simulated

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	log "github.com/sirupsen/logrus"

	"github.com/rigtoolkit/rig/pkg/faults"
	"github.com/rigtoolkit/rig/pkg/target"
)

const (
	// TypeName is the descriptor name the platform registers under.
	TypeName = "simulated"

	defaultCPUCount = 4
)

func init() {
	target.Register(&target.Descriptor{
		Name:      TypeName,
		Simulated: true,
		NewTarget: func(opts target.Options) (target.Target, error) {
			return NewTarget(opts), nil
		},
		NewAssistant: func(opts target.Options, t target.Target) (target.Assistant, error) {
			st, ok := t.(*Target)
			if !ok {
				return nil, faults.New(faults.Config, "simulated assistant requires a simulated target")
			}
			return NewAssistant(st), nil
		},
	})
}

// Target is the simulated device.
type Target struct {
	mu          sync.Mutex
	connected   bool
	responsive  bool
	online      []bool
	rebootCount int
	connectedAt time.Time
	workdir     string
	log         *log.Entry
}

func NewTarget(opts target.Options) *Target {
	t := &Target{
		responsive: true,
		online:     make([]bool, defaultCPUCount),
		workdir:    opts.Workdir,
		log:        log.WithField("com", "simulated"),
	}
	// Boot with half the CPUs online so hotplug restore is observable.
	for i := range t.online {
		t.online[i] = i < defaultCPUCount/2
	}
	return t
}

func (t *Target) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected {
		return faults.New(faults.Target, "already connected")
	}
	t.connected = true
	t.connectedAt = time.Now()
	t.log.Debug("connected")
	return nil
}

func (t *Target) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	t.log.Debug("disconnected")
	return nil
}

func (t *Target) Setup() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return faults.New(faults.Target, "setup before connect")
	}
	return nil
}

// Execute runs one command line on the device. The vocabulary is
// intentionally tiny:
//
//	echo <args>  - echo back
//	uptime       - seconds since connect
//	bench <n>    - run n iterations, emit "score=<v>" lines
//	hang         - become unresponsive, fail with a timeout
//	fail <kind>  - fail with the given fault kind
//	true         - succeed with no output
func (t *Target) Execute(cmd string) (string, error) {
	t.mu.Lock()
	connected, responsive := t.connected, t.responsive
	t.mu.Unlock()

	if !connected {
		return "", faults.New(faults.Target, "execute on disconnected target")
	}
	if !responsive {
		return "", faults.New(faults.Timeout, "target did not answer: "+cmd)
	}

	argv, err := shlex.Split(cmd)
	if err != nil {
		return "", faults.Wrap(err, faults.Config, "parsing command")
	}
	if len(argv) == 0 {
		return "", faults.New(faults.Config, "empty command")
	}

	switch argv[0] {
	case "echo":
		return strings.Join(argv[1:], " "), nil
	case "true":
		return "", nil
	case "uptime":
		t.mu.Lock()
		up := time.Since(t.connectedAt)
		t.mu.Unlock()
		return fmt.Sprintf("up %.2fs", up.Seconds()), nil
	case "bench":
		n := 1
		if len(argv) > 1 {
			if n, err = strconv.Atoi(argv[1]); err != nil || n < 1 {
				return "", faults.Errorf(faults.Config, "bench: bad iteration count %q", argv[1])
			}
		}
		var sb strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, "iteration %d: score=%d\n", i, 100+(i*7)%13)
		}
		return sb.String(), nil
	case "hang":
		t.mu.Lock()
		t.responsive = false
		t.mu.Unlock()
		return "", faults.New(faults.Timeout, "target did not answer: "+cmd)
	case "fail":
		kind := faults.Workload
		if len(argv) > 1 {
			switch argv[1] {
			case "target":
				kind = faults.Target
			case "timeout":
				kind = faults.Timeout
			case "workload":
				kind = faults.Workload
			default:
				kind = faults.Unknown
			}
		}
		return "", faults.Errorf(kind, "injected %s failure", kind)
	}
	return "", faults.Errorf(faults.Target, "command not found: %s", argv[0])
}

func (t *Target) CheckResponsive(explode bool) (bool, error) {
	t.mu.Lock()
	responsive := t.responsive
	t.mu.Unlock()
	if responsive {
		return true, nil
	}
	if explode {
		return false, faults.New(faults.NotResponding, "target is not responding")
	}
	return false, nil
}

func (t *Target) Reboot(hard bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !hard && !t.responsive {
		return faults.New(faults.NotResponding, "soft reboot needs a responsive target")
	}
	t.rebootCount++
	t.responsive = true
	t.connectedAt = time.Now()
	for i := range t.online {
		t.online[i] = i < defaultCPUCount/2
	}
	t.log.WithField("hard", hard).Debug("rebooted")
	return nil
}

// RebootCount reports how many times the device was rebooted.
func (t *Target) RebootCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rebootCount
}

func (t *Target) Has(feature target.Feature) bool {
	switch feature {
	case target.FeatureHotplug, target.FeatureHardReset:
		return true
	}
	return false
}

func (t *Target) ListOnlineCPUs() ([]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var online []int
	for cpu, on := range t.online {
		if on {
			online = append(online, cpu)
		}
	}
	return online, nil
}

func (t *Target) NumberOfCPUs() int {
	return len(t.online)
}

func (t *Target) Hotplug() target.CPUHotplug {
	return (*hotplug)(t)
}

type hotplug Target

func (h *hotplug) OnlineAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.online {
		h.online[i] = true
	}
	return nil
}

func (h *hotplug) Offline(cpus ...int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, cpu := range cpus {
		if cpu < 0 || cpu >= len(h.online) {
			return faults.Errorf(faults.Target, "no such cpu %d", cpu)
		}
		h.online[cpu] = false
	}
	return nil
}
