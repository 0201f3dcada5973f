package suite

import "strings"

// Browser is a browser engine the driver can launch.
type Browser string

const (
	Chromium Browser = "chromium"
	Firefox  Browser = "firefox"
	WebKit   Browser = "webkit"
)

var browserNames = map[string]Browser{
	"chrome":  Chromium,
	"firefox": Firefox,
	"safari":  WebKit,
}

// Project is one browser variant of a suite run.
type Project struct {
	Name    string  `json:"name"`
	Browser Browser `json:"browser"`
}

// Projects maps info.browsers onto projects named {info.name}--{browser}.
// Unknown browser names are returned separately so callers can log them.
func (s *Suite) Projects() (projects []Project, unknown []string) {
	for _, b := range s.Info.Browsers {
		engine, ok := browserNames[strings.ToLower(strings.TrimSpace(b))]
		if !ok {
			unknown = append(unknown, b)
			continue
		}
		projects = append(projects, Project{
			Name:    s.Info.Name + "--" + b,
			Browser: engine,
		})
	}
	return projects, unknown
}
