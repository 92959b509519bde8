// Package supervisor owns the lifecycle of the PhotoLive web server.
//
// A Supervisor launches exactly one subordinate server process, bound to the
// first port in a configured range on which the process stays alive for an
// observation window. It tracks that process until Stop is called or the
// process exits on its own, and guarantees the process is terminated, reaped,
// and its port lease released on the way out.
//
// Start sequence:
//  1. Validate the web app environment.
//  2. Install dependencies once if they are missing.
//  3. Locate the JavaScript runtime.
//  4. Scan the port range in ascending order. Each candidate is a real launch
//     with the port passed in the child's own environment. A candidate is
//     accepted if the child is still alive when the observation window ends;
//     otherwise it is reaped and the next port is tried.
//
// The remaining race is acknowledged: another program can bind the accepted
// port after the window, or a slow child can fail to bind after it. Port
// leases (advisory file locks under LeaseDir) stop two supervisors on the
// same machine from scanning onto each other's ports.
//
// Collaborators (environment, provisioner, runtime locator, launcher) are
// injected through Deps so tests can replace every side effect.
//
// Example usage:
//
//	sup, err := supervisor.New(cfg, supervisor.Deps{
//	    Environment: layout,
//	    Provisioner: provisioner,
//	    Runtime:     locator,
//	    Launcher:    supervisor.ProcessLauncher(process.NewLauncher()),
//	})
//	if err != nil {
//	    return err
//	}
//	if err := sup.Start(ctx); err != nil {
//	    log.Warn("web server unavailable", "error", err)
//	}
//	defer sup.Stop()
package supervisor
