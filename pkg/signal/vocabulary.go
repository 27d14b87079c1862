package signal

// Signal identifies one lifecycle event point. The set below is fixed
// and closed; instruments react to these and nothing else. Signals are
// compared by pointer identity.
type Signal struct {
	Name        string
	Description string
}

func (s *Signal) String() string {
	return s.Name
}

func def(name, description string) *Signal {
	return &Signal{Name: name, Description: description}
}

// Run and job lifecycle signals.
var (
	RunInitialized = def("run-initialized", "run time context has been initialized")
	RunStarted     = def("run-started", "a run has started")
	RunCompleted   = def("run-completed", "a run has completed")
	RunFinalized   = def("run-finalized", "a run has been finalized")

	JobStarted   = def("job-started", "a job has started")
	JobRestarted = def("job-restarted", "a job is being restarted after a failure")
	JobCompleted = def("job-completed", "a job has completed")
	JobFailed    = def("job-failed", "a job has failed")
	JobAborted   = def("job-aborted", "a job has been aborted")

	ErrorLogged   = def("error-logged", "an error has been logged")
	WarningLogged = def("warning-logged", "a warning has been logged")
)

// Bracketed signal triplets. For any operation wrapped with
// Dispatcher.Wrap, once the before signal is sent the after signal is
// guaranteed to also be sent; the successful signal fires only when the
// wrapped operation returned no error.
var (
	BeforeJob     = def("before-job", "about to run a job")
	SuccessfulJob = def("successful-job", "job ran without error")
	AfterJob      = def("after-job", "job finished running")

	BeforeJobOutputProcessed     = def("before-job-output-processed", "about to process job output")
	SuccessfulJobOutputProcessed = def("successful-job-output-processed", "job output processed without error")
	AfterJobOutputProcessed      = def("after-job-output-processed", "finished processing job output")

	BeforeWorkloadSetup     = def("before-workload-setup", "about to set up a workload")
	SuccessfulWorkloadSetup = def("successful-workload-setup", "workload set up without error")
	AfterWorkloadSetup      = def("after-workload-setup", "finished setting up a workload")

	BeforeWorkloadExecution     = def("before-workload-execution", "about to execute a workload")
	SuccessfulWorkloadExecution = def("successful-workload-execution", "workload executed without error")
	AfterWorkloadExecution      = def("after-workload-execution", "finished executing a workload")

	BeforeWorkloadOutputUpdate     = def("before-workload-output-update", "about to update workload output")
	SuccessfulWorkloadOutputUpdate = def("successful-workload-output-update", "workload output updated without error")
	AfterWorkloadOutputUpdate      = def("after-workload-output-update", "finished updating workload output")

	BeforeWorkloadTeardown     = def("before-workload-teardown", "about to tear down a workload")
	SuccessfulWorkloadTeardown = def("successful-workload-teardown", "workload torn down without error")
	AfterWorkloadTeardown      = def("after-workload-teardown", "finished tearing down a workload")

	BeforeReboot     = def("before-reboot", "about to reboot the target")
	SuccessfulReboot = def("successful-reboot", "target rebooted without error")
	AfterReboot      = def("after-reboot", "finished rebooting the target")

	BeforeTargetConnect     = def("before-target-connect", "about to connect to the target")
	SuccessfulTargetConnect = def("successful-target-connect", "connected to the target")
	AfterTargetConnect      = def("after-target-connect", "finished connecting to the target")

	BeforeTargetDisconnect     = def("before-target-disconnect", "about to disconnect from the target")
	SuccessfulTargetDisconnect = def("successful-target-disconnect", "disconnected from the target")
	AfterTargetDisconnect      = def("after-target-disconnect", "finished disconnecting from the target")
)

type bracket struct {
	before     *Signal
	successful *Signal
	after      *Signal
}

// Bracket names accepted by Dispatcher.Wrap.
const (
	WrapJob                  = "JOB"
	WrapJobOutputProcessed   = "JOB_OUTPUT_PROCESSED"
	WrapWorkloadSetup        = "WORKLOAD_SETUP"
	WrapWorkloadExecution    = "WORKLOAD_EXECUTION"
	WrapWorkloadOutputUpdate = "WORKLOAD_OUTPUT_UPDATE"
	WrapWorkloadTeardown     = "WORKLOAD_TEARDOWN"
	WrapReboot               = "REBOOT"
	WrapTargetConnect        = "TARGET_CONNECT"
	WrapTargetDisconnect     = "TARGET_DISCONNECT"
)

var brackets = map[string]bracket{
	WrapJob:                  {BeforeJob, SuccessfulJob, AfterJob},
	WrapJobOutputProcessed:   {BeforeJobOutputProcessed, SuccessfulJobOutputProcessed, AfterJobOutputProcessed},
	WrapWorkloadSetup:        {BeforeWorkloadSetup, SuccessfulWorkloadSetup, AfterWorkloadSetup},
	WrapWorkloadExecution:    {BeforeWorkloadExecution, SuccessfulWorkloadExecution, AfterWorkloadExecution},
	WrapWorkloadOutputUpdate: {BeforeWorkloadOutputUpdate, SuccessfulWorkloadOutputUpdate, AfterWorkloadOutputUpdate},
	WrapWorkloadTeardown:     {BeforeWorkloadTeardown, SuccessfulWorkloadTeardown, AfterWorkloadTeardown},
	WrapReboot:               {BeforeReboot, SuccessfulReboot, AfterReboot},
	WrapTargetConnect:        {BeforeTargetConnect, SuccessfulTargetConnect, AfterTargetConnect},
	WrapTargetDisconnect:     {BeforeTargetDisconnect, SuccessfulTargetDisconnect, AfterTargetDisconnect},
}
