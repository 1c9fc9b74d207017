package smtp

import "strings"

// Capabilities is the set of extensions a server advertised in its EHLO
// reply, plus the ordered list of AUTH mechanisms. Capabilities are
// re-derived after a TLS upgrade: servers commonly advertise authentication
// only post-TLS.
type Capabilities struct {
	exts map[string]string

	// AuthMechanisms preserves the server's advertised order.
	AuthMechanisms []string
}

// parseCapabilities derives Capabilities from an EHLO reply. The first line
// is the server greeting, not a capability.
func parseCapabilities(reply *Reply) Capabilities {
	caps := Capabilities{exts: make(map[string]string)}

	if reply == nil || len(reply.Lines) < 2 {
		return caps
	}

	for _, line := range reply.Lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		name, params, _ := strings.Cut(line, " ")
		name = strings.ToUpper(name)
		caps.exts[name] = params

		if name == "AUTH" {
			for _, mech := range strings.Fields(params) {
				caps.AuthMechanisms = append(caps.AuthMechanisms, strings.ToUpper(mech))
			}
		}
	}

	return caps
}

// Has reports whether the named capability was advertised.
func (c Capabilities) Has(name string) bool {
	if c.exts == nil {
		return false
	}
	_, ok := c.exts[strings.ToUpper(name)]
	return ok
}

// Param returns the parameter string advertised with the capability.
func (c Capabilities) Param(name string) string {
	if c.exts == nil {
		return ""
	}
	return c.exts[strings.ToUpper(name)]
}

// HasAuthMechanism reports whether the mechanism appears in the advertised
// AUTH list.
func (c Capabilities) HasAuthMechanism(mech string) bool {
	for _, m := range c.AuthMechanisms {
		if strings.EqualFold(m, mech) {
			return true
		}
	}
	return false
}
