package bootnode

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// execNode replaces the current process with hl-visor. Only reached when no
// background supervision was requested, so nothing of ours needs to stay
// resident.
func execNode(args []string) error {
	bin, err := exec.LookPath(nodeBinary)
	if err != nil {
		return fmt.Errorf("locate %s: %w", nodeBinary, err)
	}
	argv := append([]string{nodeBinary}, args...)
	if err := syscall.Exec(bin, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", nodeBinary, err)
	}
	return nil
}

// ExecPassthrough hands the process over to an arbitrary command. Used when
// the first argument is clearly not an hl-visor run mode, e.g. the image
// entrypoint being reused to run a shell.
func ExecPassthrough(args []string) error {
	bin, err := exec.LookPath(args[0])
	if err != nil {
		return fmt.Errorf("locate %s: %w", args[0], err)
	}
	if err := syscall.Exec(bin, args, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", args[0], err)
	}
	return nil
}
