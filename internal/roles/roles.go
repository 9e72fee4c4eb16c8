package roles

import (
	"fmt"
	"strings"
)

type Role string

const (
	Admin     Role = "ADMIN"
	Moderator Role = "MODERATOR"
	User      Role = "USER"
)

type Info struct {
	Name        Role   `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var table = []Info{
	{Name: Admin, Title: "Administrator", Description: "Manages accounts and handles escalated complaints"},
	{Name: Moderator, Title: "Moderator", Description: "Reviews and routes incoming complaints"},
	{Name: User, Title: "User", Description: "Files complaints and follows their progress"},
}

// All returns the role table in display order.
func All() []Info {
	out := make([]Info, len(table))
	copy(out, table)
	return out
}

func Parse(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, info := range table {
		if info.Name == r {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }
