package projects

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"gopkg.in/yaml.v3"

	"github.com/user/simterm/internal/types"
)

//go:embed samples/projects.yaml
var samplesYAML []byte

type projectFile struct {
	Projects []*types.Project `yaml:"projects"`
}

// Parse decodes a projects YAML document. Descriptions authored as HTML by
// the docs site are converted to Markdown for terminal display.
func Parse(data []byte) ([]*types.Project, error) {
	var doc projectFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	for _, p := range doc.Projects {
		desc, err := markdownDescription(p.Description)
		if err != nil {
			return nil, fmt.Errorf("project %q description: %w", p.ID, err)
		}
		p.Description = desc
	}
	return doc.Projects, nil
}

// Samples returns the bundled sample projects.
func Samples() ([]*types.Project, error) {
	return Parse(samplesYAML)
}

// ReadFile parses the projects file at path.
func ReadFile(path string) ([]*types.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read projects file: %w", err)
	}
	return Parse(data)
}

// Load builds a Library from path, or from the bundled samples when path
// is empty.
func Load(path string) (*Library, error) {
	var (
		list []*types.Project
		err  error
	)
	if path == "" {
		list, err = Samples()
	} else {
		list, err = ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return NewLibrary(list)
}

func markdownDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") || !strings.Contains(s, ">") {
		return s, nil
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
