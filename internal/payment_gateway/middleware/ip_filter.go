package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

// IPFilter only lets through clients whose address falls in one of the configured prefixes.
// Entries are CIDRs or single addresses; an empty list allows everyone.
func IPFilter(logger *slog.Logger, allowed []string) (gin.HandlerFunc, error) {
	prefixes, err := parsePrefixes(allowed)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		if len(prefixes) == 0 {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		addr, err := netip.ParseAddr(clientIP)
		if err == nil && containsAddr(prefixes, addr.Unmap()) {
			c.Next()
			return
		}

		logger.WarnContext(c.Request.Context(), "Rejected request from address outside allow-list",
			"path", c.Request.URL.Path,
			"client_ip", clientIP,
		)
		c.AbortWithStatus(http.StatusForbidden)
	}, nil
}

func parsePrefixes(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid allowed network %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed address %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func containsAddr(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
