// Package target defines the device capability interfaces consumed by
// the core and the session Manager that owns one device connection,
// including the responsiveness-verification and reboot-recovery state
// machine.
package target

import (
	"fmt"
	"sync"

	"github.com/rigtoolkit/rig/pkg/execution"
)

// Feature names queried through Target.Has.
type Feature string

const (
	FeatureHotplug   Feature = "hotplug"
	FeatureHardReset Feature = "hard-reset"
)

// KnownFeatures is the capability probe list used during discovery.
var KnownFeatures = []Feature{FeatureHotplug, FeatureHardReset}

// CPUHotplug is the optional CPU hotplug sub-capability.
type CPUHotplug interface {
	OnlineAll() error
	Offline(cpus ...int) error
}

// Target is the opaque device transport. Implementations own the wire
// details; the core only drives this contract.
type Target interface {
	Connect() error
	Disconnect() error
	Setup() error
	Execute(cmd string) (string, error)
	// CheckResponsive probes liveness. With explode set, an
	// unresponsive target is reported through the error as well.
	CheckResponsive(explode bool) (bool, error)
	Reboot(hard bool) error
	Has(feature Feature) bool
	ListOnlineCPUs() ([]int, error)
	NumberOfCPUs() int
	Hotplug() CPUHotplug
}

// Assistant is the companion helper process bound to a target.
type Assistant interface {
	Start() error
	Stop() error
	ExtractResults(ctx *execution.Context) error
}

// Options configures a target session.
type Options struct {
	// Disconnect from the target when the session is finalized.
	// Simulated platforms disconnect unconditionally.
	Disconnect bool
	// Workdir is the on-device working directory for workload files.
	Workdir string
	// Params carries target-type specific settings.
	Params map[string]string
}

// Descriptor describes one target type and how to instantiate it.
type Descriptor struct {
	Name         string
	Simulated    bool
	NewTarget    func(opts Options) (Target, error)
	NewAssistant func(opts Options, t Target) (Assistant, error)
}

var (
	descMu      sync.Mutex
	descriptors = map[string]*Descriptor{}
)

// Register makes a target type available by name. It panics on a
// duplicate or incomplete descriptor, like database/sql driver
// registration: this is a programming error, not a runtime condition.
func Register(d *Descriptor) {
	descMu.Lock()
	defer descMu.Unlock()
	if d == nil || d.Name == "" || d.NewTarget == nil || d.NewAssistant == nil {
		panic("target: Register with incomplete descriptor")
	}
	if _, dup := descriptors[d.Name]; dup {
		panic(fmt.Sprintf("target: Register called twice for %q", d.Name))
	}
	descriptors[d.Name] = d
}

// LookupDescriptor resolves a registered target type by name.
func LookupDescriptor(name string) (*Descriptor, bool) {
	descMu.Lock()
	defer descMu.Unlock()
	d, ok := descriptors[name]
	return d, ok
}
