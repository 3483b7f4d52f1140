package middleware

import (
	"net/netip"
	"strings"

	"github.com/atency/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SwaggerConfig decides who may read the API documentation
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	// AllowedIPs holds addresses or CIDR prefixes. Empty means any client.
	AllowedIPs []string
}

// docsAllowList is the parsed form of SwaggerConfig.AllowedIPs. A plain
// address is stored as a single-host prefix.
type docsAllowList struct {
	restricted bool
	prefixes   []netip.Prefix
}

func parseDocsAllowList(entries []string) docsAllowList {
	list := docsAllowList{restricted: len(entries) > 0}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			if p, err := netip.ParsePrefix(entry); err == nil {
				list.prefixes = append(list.prefixes, p.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			list.prefixes = append(list.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return list
}

// permits reports whether the client may proceed. Unparseable entries never
// match, so a list of only bad entries locks everyone out.
func (l docsAllowList) permits(client string) bool {
	if !l.restricted {
		return true
	}
	addr, err := netip.ParseAddr(client)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range l.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// SwaggerProtection guards /swagger. Disabled docs look like a missing route,
// then the allow list applies, then authenticate when RequireAuth is set.
func SwaggerProtection(cfg SwaggerConfig, authenticate gin.HandlerFunc) gin.HandlerFunc {
	allow := parseDocsAllowList(cfg.AllowedIPs)
	checkAuth := cfg.RequireAuth && authenticate != nil

	return func(c *gin.Context) {
		switch {
		case !cfg.Enabled:
			abortWithError(c, dto.ErrCodeNotFound, "API documentation is not available")
		case !allow.permits(c.ClientIP()):
			abortWithError(c, dto.ErrCodeForbidden, "Access to API documentation is restricted")
		case checkAuth:
			if authenticate(c); !c.IsAborted() {
				c.Next()
			}
		default:
			c.Next()
		}
	}
}
