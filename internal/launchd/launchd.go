// Package launchd provides launchd plist generation for running the daemon
// as a macOS login agent.
package launchd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// Label identifies the user agent.
const Label = "com.holdtype.agent"

const plistTemplate = `<?xml version='1.0' encoding='UTF-8'?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
  <key>Label</key><string>{{.Label}}</string>
  <key>ProgramArguments</key>
  <array>
    <string>{{.Binary}}</string>
    <string>serve</string>
    <string>--config</string>
    <string>{{.Config}}</string>
  </array>
  <key>RunAtLoad</key><true/>
  <key>KeepAlive</key><dict><key>SuccessfulExit</key><false/></dict>
  <key>StandardOutPath</key><string>{{.Log}}</string>
  <key>StandardErrorPath</key><string>{{.Log}}</string>
  {{- if .Env }}
  <key>EnvironmentVariables</key>
  <dict>
    {{- range $k, $v := .Env }}
    <key>{{$k}}</key><string>{{$v}}</string>
    {{- end }}
  </dict>
  {{- end }}
</dict>
</plist>`

type Params struct {
	Label  string
	Binary string
	Config string
	Log    string
	Env    map[string]string
}

// Path returns the plist path for a label.
func Path(label string) string {
	return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", fmt.Sprintf("%s.plist", label))
}

// WritePlist writes a user-level launchd plist.
func WritePlist(params Params) (string, error) {
	if err := os.MkdirAll(filepath.Dir(params.Config), 0o755); err != nil {
		return "", err
	}
	plistDir := filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents")
	if err := os.MkdirAll(plistDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(plistDir, fmt.Sprintf("%s.plist", params.Label))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	tpl := template.Must(template.New("launchd").Parse(plistTemplate))
	if err := tpl.Execute(f, params); err != nil {
		return "", err
	}
	return path, nil
}

// Status returns the plist path and whether it exists.
func Status(label string) (string, bool) {
	plist := Path(label)
	if _, err := os.Stat(plist); err == nil {
		return plist, true
	}
	return plist, false
}
