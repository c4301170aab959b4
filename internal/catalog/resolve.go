package catalog

import (
	"strings"

	"github.com/user/simterm/internal/types"
)

// Resolve finds a file by exact path, exact leaf name, path suffix and
// finally case-insensitive substring. The first strategy with a hit wins.
func Resolve(name string, p *types.Project) (*types.ProjectFile, bool) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "./")
	if name == "" || p == nil {
		return nil, false
	}

	for i := range p.Files {
		if p.Files[i].Path == name {
			return &p.Files[i], true
		}
	}
	for i := range p.Files {
		if p.Files[i].Name == name {
			return &p.Files[i], true
		}
	}
	for i := range p.Files {
		if strings.HasSuffix(p.Files[i].Path, "/"+name) {
			return &p.Files[i], true
		}
	}
	lower := strings.ToLower(name)
	for i := range p.Files {
		if strings.Contains(strings.ToLower(p.Files[i].Path), lower) {
			return &p.Files[i], true
		}
	}
	return nil, false
}
