package http

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
)

// IDEPrefix is where the IDE is mounted on the dev UI server.
const IDEPrefix = "/ide"

// ProxyHandler forwards plain HTTP requests under IDEPrefix to the running IDE.
type ProxyHandler struct {
	service ports.DevService
}

// NewProxyHandler creates a new proxy handler.
func NewProxyHandler(service ports.DevService) *ProxyHandler {
	return &ProxyHandler{service: service}
}

// ProxyRequest resolves the IDE address from the last pass on every request,
// so a restarted container on a new port is picked up without a restart.
func (h *ProxyHandler) ProxyRequest(c *fiber.Ctx) error {
	current := h.service.Current()
	if !current.Running() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("code-server is not running")
	}

	remote, err := proxyTarget(IDEURL(current))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Invalid target URL")
	}

	proxy := httputil.NewSingleHostReverseProxy(remote)

	// Rewrite Host so code-server sees the address it was published on.
	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		req.URL.Path = stripPrefix(req.URL.Path)
		req.URL.RawPath = ""
		originalDirector(req)
		req.Host = remote.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, "Proxy Info: target=%s error=%v", remote.Host, err)
	}

	return adaptor.HTTPHandler(proxy)(c)
}

// proxyTarget keeps the scheme and host of the connection URL. The folder
// query only matters to the browser.
func proxyTarget(connectionURL string) (*url.URL, error) {
	u, err := url.Parse(connectionURL)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("connection URL %q has no host", connectionURL)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

func stripPrefix(path string) string {
	p := strings.TrimPrefix(path, IDEPrefix)
	if p == "" {
		return "/"
	}
	return p
}
