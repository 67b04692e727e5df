package wizard

import (
	"fmt"
	"strings"
)

const (
	ConfigBaseDir     = "BASE_DIR"
	ConfigVersion     = "SEATUNNEL_VERSION"
	ConfigDeployMode  = "DEPLOY_MODE"
	ConfigNodeIPs     = "NODE_IPS"
	ConfigInstallMode = "INSTALL_MODE"

	defaultBaseDir = "/home/seatunnel/seatunnel-package"
	defaultVersion = "2.3.12"
)

// ConfigKeys lists the form fields shown before any backend config is loaded.
var ConfigKeys = []string{ConfigBaseDir, ConfigVersion, ConfigDeployMode, ConfigNodeIPs, ConfigInstallMode}

var serviceUnits = []string{"seatunnel-master", "seatunnel-worker"}

// Summary is what the finished page shows.
type Summary struct {
	BaseDir     string
	Version     string
	InstallPath string
	DeployMode  string
	Nodes       []string
	Commands    []string
}

func BuildSummary(cfg map[string]string) Summary {
	baseDir := strings.TrimRight(strings.TrimSpace(cfg[ConfigBaseDir]), "/")
	if baseDir == "" {
		baseDir = defaultBaseDir
	}
	version := strings.TrimSpace(cfg[ConfigVersion])
	if version == "" {
		version = defaultVersion
	}
	summary := Summary{
		BaseDir:     baseDir,
		Version:     version,
		InstallPath: fmt.Sprintf("%s/apache-seatunnel-%s", baseDir, version),
		DeployMode:  strings.TrimSpace(cfg[ConfigDeployMode]),
		Nodes:       splitNodes(cfg[ConfigNodeIPs]),
	}
	for _, verb := range []string{"start", "status"} {
		for _, unit := range serviceUnits {
			summary.Commands = append(summary.Commands, fmt.Sprintf("systemctl %s %s", verb, unit))
		}
	}
	return summary
}

func splitNodes(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("# Installation finished\n\n")
	fmt.Fprintf(&b, "SeaTunnel **%s** is installed at `%s`.\n\n", s.Version, s.InstallPath)
	if s.DeployMode != "" {
		fmt.Fprintf(&b, "- Deploy mode: %s\n", s.DeployMode)
	}
	if len(s.Nodes) > 0 {
		fmt.Fprintf(&b, "- Nodes: %s\n", strings.Join(s.Nodes, ", "))
	}
	if s.DeployMode != "" || len(s.Nodes) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("## Managing the services\n\n```sh\n")
	for _, cmd := range s.Commands {
		b.WriteString(cmd)
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	return b.String()
}
