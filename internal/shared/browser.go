package shared

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// ErrNoBrowser is returned when no browser can be launched from this session.
var ErrNoBrowser = errors.New("no browser available")

var (
	getRuntime = func() string { return runtime.GOOS }
	lookupEnv  = os.LookupEnv
)

// browserCommand builds the command that opens url. $BROWSER wins on every platform.
// Linux sessions without a display are refused with [ErrNoBrowser].
func browserCommand(url string) (*exec.Cmd, error) {
	if b, ok := lookupEnv("BROWSER"); ok && b != "" {
		return exec.Command(b, url), nil
	}

	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		if !hasDisplay() {
			return nil, fmt.Errorf("%w: no DISPLAY or WAYLAND_DISPLAY set", ErrNoBrowser)
		}
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("%w: unsupported platform %s", ErrNoBrowser, rt)
	}
}

func hasDisplay() bool {
	for _, key := range []string{"DISPLAY", "WAYLAND_DISPLAY"} {
		if v, ok := lookupEnv(key); ok && v != "" {
			return true
		}
	}
	return false
}

// OpenBrowser opens url in the user's browser without waiting for it to exit.
func OpenBrowser(url string) error {
	cmd, err := browserCommand(url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}

// PresentURL sends the user to url. With launch set it tries open first; otherwise, or when open fails,
// it prints url to w for the user to copy. It reports whether a browser was launched and returns open's
// error, if any, for logging.
func PresentURL(w io.Writer, url string, launch bool, open func(string) error) (bool, error) {
	var openErr error
	if launch && open != nil {
		if openErr = open(url); openErr == nil {
			return true, nil
		}
	}
	if _, err := fmt.Fprintf(w, "Open this URL to sign in:\n\n  %s\n\n", url); err != nil {
		return false, err
	}
	return false, openErr
}
