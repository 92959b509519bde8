// Package process launches and tears down the PhotoLive web server subprocess.
//
// A Launcher performs exactly one OS spawn per call and returns a Handle that
// exclusively owns the child. The Handle reaps the child in the background,
// reports liveness, and stops it with a bounded graceful-then-forceful
// sequence.
//
// Platform behaviour is selected at compile time:
//   - unix: the child runs in its own process group and signals are sent to
//     the whole group; on Linux the child also receives SIGTERM if the host
//     thread that spawned it dies.
//   - windows: the child gets no console window, a new process group, and is
//     assigned to a kill-on-close job object so it cannot outlive the host.
//
// Example usage:
//
//	l := process.NewLauncher()
//	h, err := l.Launch(ctx, process.Spec{
//	    Name:   "web-app",
//	    Binary: "/usr/bin/node",
//	    Args:   []string{"server.js"},
//	    Dir:    "/opt/photolive/web-app",
//	    Env:    []string{"PORT=3001"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer h.Release()
//	defer h.Stop(10 * time.Second)
package process
