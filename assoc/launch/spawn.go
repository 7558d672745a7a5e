package launch

import (
	"os/exec"
	"slices"
	"sync"
)

// Spawner starts a process without waiting for it.
type Spawner interface {
	Spawn(argv, env []string) (pid int, err error)
}

// ExecSpawner starts processes with os/exec and reaps them in the
// background.
type ExecSpawner struct{}

// Spawn implements Spawner.
func (ExecSpawner) Spawn(argv, env []string) (int, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = env
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	go func() { _ = cmd.Wait() }()
	return cmd.Process.Pid, nil
}

// Call is one recorded spawn or activation.
type Call struct {
	Kind  string // "spawn", "activate", "activate-for-file", "activate-for-protocol"
	Argv  []string
	Env   []string
	AUMID string
	Items []string
	Verb  string
}

// Recorder is a Spawner and Activator that only records what it was asked
// to do. It backs dry runs.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	// Err, when set, is returned by every call.
	Err error
}

func (r *Recorder) record(c Call) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	if r.Err != nil {
		return 0, r.Err
	}
	return uint32(1000 + len(r.calls)), nil
}

// Calls returns the calls so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Spawn implements Spawner.
func (r *Recorder) Spawn(argv, env []string) (int, error) {
	pid, err := r.record(Call{Kind: "spawn", Argv: slices.Clone(argv), Env: slices.Clone(env)})
	return int(pid), err
}

// Activate implements Activator.
func (r *Recorder) Activate(aumid string) (uint32, error) {
	return r.record(Call{Kind: "activate", AUMID: aumid})
}

// ActivateForFile implements Activator.
func (r *Recorder) ActivateForFile(aumid string, items []string, verb string) (uint32, error) {
	return r.record(Call{Kind: "activate-for-file", AUMID: aumid, Items: slices.Clone(items), Verb: verb})
}

// ActivateForProtocol implements Activator.
func (r *Recorder) ActivateForProtocol(aumid string, items []string) (uint32, error) {
	return r.record(Call{Kind: "activate-for-protocol", AUMID: aumid, Items: slices.Clone(items)})
}
