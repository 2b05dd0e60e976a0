package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// startCommand launches the opener without waiting for it.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open opens an http(s) URL in the user's default browser. Anything else is
// refused so a bad config value never reaches the shell opener.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("browser.Open: not an http(s) URL: %q", rawURL)
	}
	name, args, err := command(runtime.GOOS, u.String())
	if err != nil {
		return err
	}
	return startCommand(name, args...)
}

func command(goos, target string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{target}, nil
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	default:
		return "", nil, fmt.Errorf("browser.Open: unsupported OS: %s", goos)
	}
}
