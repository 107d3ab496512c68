// Package update performs the best-effort startup check for a newer
// application release.
package update

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ahmad66-rgb/upscaler/internal/logging"
)

// Endpoint is the release metadata location polled at startup.
const Endpoint = "https://example.com/ignition/version.json"

// Checker queries the release endpoint. The zero client falls back to a
// short-timeout default so a dead endpoint never stalls startup.
type Checker struct {
	client   *http.Client
	endpoint string
}

// NewChecker creates a checker against the production endpoint.
func NewChecker() *Checker {
	return &Checker{
		client:   &http.Client{Timeout: 5 * time.Second},
		endpoint: Endpoint,
	}
}

func newChecker(client *http.Client, endpoint string) *Checker {
	return &Checker{client: client, endpoint: endpoint}
}

type releaseInfo struct {
	Version string `json:"version"`
}

// Check reports the latest published version and whether it is newer than
// current. Every failure mode (network, status, malformed body) is
// swallowed: the check is advisory and must never block or fail startup.
func (c *Checker) Check(current string) (latest string, available bool) {
	logger := logging.GetLogger("update")

	resp, err := c.client.Get(c.endpoint)
	if err != nil {
		logger.Debug("update check skipped", "error", err)
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Debug("update check skipped", "status", resp.StatusCode)
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", false
	}
	var info releaseInfo
	if err := json.Unmarshal(body, &info); err != nil || info.Version == "" {
		logger.Debug("update check skipped", "error", err)
		return "", false
	}

	return info.Version, newerThan(info.Version, current)
}

// newerThan compares dotted numeric versions segment by segment. A
// non-numeric segment compares lexically, which is enough for the simple
// x.y.z scheme the endpoint publishes.
func newerThan(candidate, current string) bool {
	a := strings.Split(candidate, ".")
	b := strings.Split(current, ".")
	for i := 0; i < len(a) || i < len(b); i++ {
		var sa, sb string
		if i < len(a) {
			sa = a[i]
		}
		if i < len(b) {
			sb = b[i]
		}
		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		if errA == nil && errB == nil {
			if na != nb {
				return na > nb
			}
			continue
		}
		if sa != sb {
			return sa > sb
		}
	}
	return false
}
