// Package transcript renders the session log as plain text.
package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/simterm/internal/types"
)

const (
	stampLayout  = "15:04:05"
	headerLayout = "2006-01-02 15:04:05 MST"
	rule         = "----------------------------------------"
)

// Export renders sess as plain text: a header naming the project and the
// session start and export times, then one entry per log line. It only
// reads its arguments.
func Export(sess types.Session, project *types.Project, exportedAt time.Time) string {
	var b strings.Builder

	b.WriteString("Terminal transcript\n")
	if project != nil {
		fmt.Fprintf(&b, "Project:  %s (%s)\n", project.Name, project.ID)
	} else {
		fmt.Fprintf(&b, "Project:  %s\n", sess.ProjectID)
	}
	fmt.Fprintf(&b, "Session:  %s\n", sess.ID)
	fmt.Fprintf(&b, "Started:  %s\n", sess.StartedAt.Format(headerLayout))
	fmt.Fprintf(&b, "Exported: %s\n", exportedAt.Format(headerLayout))
	b.WriteString(rule + "\n")

	for _, line := range sess.Output {
		fmt.Fprintf(&b, "[%s] %s%s\n", line.Timestamp.Format(stampLayout), Marker(line.Type), line.Content)
	}
	return b.String()
}

// Marker is the prefix that identifies a line type in the transcript.
func Marker(t types.LineType) string {
	switch t {
	case types.LineInput:
		return "$ "
	case types.LineError:
		return "ERROR: "
	case types.LineSystem:
		return "SYSTEM: "
	default:
		return ""
	}
}
