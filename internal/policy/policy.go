package policy

import (
	"errors"
	"path"
	"slices"
	"strings"

	"github.com/Skotchmaster/complaint_desk/internal/roles"
)

type Outcome int

const (
	Allowed Outcome = iota
	Unauthenticated
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Rule requires one of Roles on paths matching Pattern. An empty Roles
// list accepts any authenticated caller.
type Rule struct {
	Pattern string
	Roles   []roles.Role
}

type Policy struct {
	public []string
	rules  []Rule
}

// New builds a policy. Rules are tried in order, so list the most
// specific patterns first.
func New(public []string, rules []Rule) *Policy {
	return &Policy{public: public, rules: rules}
}

// Default is the route table of the service.
func Default() *Policy {
	return New(
		[]string{
			"/health/live",
			"/health/ready",
			"/auth/login",
			"/auth/register",
			"/auth/logout",
			"/api/enum/**",
		},
		[]Rule{
			{Pattern: "/api/admin/**", Roles: []roles.Role{roles.Admin}},
			{Pattern: "/api/users/admin/**", Roles: []roles.Role{roles.Admin}},
			{Pattern: "/api/users/mod/**", Roles: []roles.Role{roles.Moderator, roles.Admin}},
			{Pattern: "/api/users/**", Roles: []roles.Role{roles.User, roles.Moderator, roles.Admin}},
			{Pattern: "/**"},
		},
	)
}

// Evaluate decides access for a request path. A nil role means the
// request is anonymous. Paths that are not canonical match no pattern.
func (p *Policy) Evaluate(reqPath string, role *roles.Role) (Outcome, *Rule) {
	if !Canonical(reqPath) {
		if role == nil {
			return Unauthenticated, nil
		}
		return Forbidden, nil
	}

	for _, pattern := range p.public {
		if Match(pattern, reqPath) {
			return Allowed, nil
		}
	}

	for i := range p.rules {
		rule := &p.rules[i]
		if !Match(rule.Pattern, reqPath) {
			continue
		}
		if role == nil {
			return Unauthenticated, rule
		}
		if len(rule.Roles) == 0 || slices.Contains(rule.Roles, *role) {
			return Allowed, rule
		}
		return Forbidden, rule
	}

	// Nothing matched and there is no catch-all: deny.
	if role == nil {
		return Unauthenticated, nil
	}
	return Forbidden, nil
}

func (p *Policy) IsPublic(reqPath string) bool {
	if !Canonical(reqPath) {
		return false
	}
	for _, pattern := range p.public {
		if Match(pattern, reqPath) {
			return true
		}
	}
	return false
}

// Match reports whether reqPath matches pattern. "*" matches one path
// segment; a trailing "/**" matches the prefix itself and everything below.
func Match(pattern, reqPath string) bool {
	if pattern == "/**" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		if matchSegments(prefix, reqPath) {
			return true
		}
		for i := len(reqPath) - 1; i > 0; i-- {
			if reqPath[i] == '/' && matchSegments(prefix, reqPath[:i]) {
				return true
			}
		}
		return false
	}
	return matchSegments(pattern, reqPath)
}

func matchSegments(pattern, reqPath string) bool {
	ok, err := path.Match(pattern, reqPath)
	return err == nil && ok
}

// Canonical reports whether p is absolute and free of dot and empty
// segments. One trailing slash is accepted.
func Canonical(p string) bool {
	if !strings.HasPrefix(p, "/") {
		return false
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return path.Clean(p) == p
}

var ErrInsufficientRole = errors.New("insufficient role")
