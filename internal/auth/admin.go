package auth

import "strings"

// DefaultAdmin is the administrator username used when none is configured.
const DefaultAdmin = "admin@kishorelytics.com"

// AdminPolicy decides which usernames are administrators.
//
// It is a fixed allow-list built at startup, so IsAdmin is a pure predicate and
// safe to share across request goroutines without locking.
type AdminPolicy struct {
	admins map[string]struct{}
}

// NewAdminPolicy builds a policy from the configured usernames. Blank entries
// are ignored and names are compared exactly (usernames are case-sensitive).
// An empty list falls back to DefaultAdmin.
func NewAdminPolicy(usernames []string) *AdminPolicy {
	p := &AdminPolicy{admins: make(map[string]struct{}, len(usernames))}
	for _, u := range usernames {
		u = strings.TrimSpace(u)
		if u != "" {
			p.admins[u] = struct{}{}
		}
	}
	if len(p.admins) == 0 {
		p.admins[DefaultAdmin] = struct{}{}
	}
	return p
}

func (p *AdminPolicy) IsAdmin(username string) bool {
	if username == "" {
		return false
	}
	_, ok := p.admins[username]
	return ok
}
