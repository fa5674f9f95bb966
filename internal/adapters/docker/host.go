package docker

import "net/url"

// hostFromDaemon returns the host published ports are reachable on: the
// daemon host for TCP connections, localhost for local sockets.
func hostFromDaemon(daemonHost string) string {
	u, err := url.Parse(daemonHost)
	if err != nil {
		return "localhost"
	}
	switch u.Scheme {
	case "tcp", "http", "https":
		if h := u.Hostname(); h != "" {
			return h
		}
	}
	return "localhost"
}
