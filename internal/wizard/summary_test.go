package wizard

import (
	"strings"
	"testing"
)

func TestBuildSummaryDefaults(t *testing.T) {
	s := BuildSummary(nil)
	if s.InstallPath != "/home/seatunnel/seatunnel-package/apache-seatunnel-2.3.12" {
		t.Fatalf("unexpected install path %q", s.InstallPath)
	}
	if len(s.Commands) != 4 || s.Commands[0] != "systemctl start seatunnel-master" || s.Commands[3] != "systemctl status seatunnel-worker" {
		t.Fatalf("unexpected commands %#v", s.Commands)
	}
}

func TestBuildSummaryFromConfig(t *testing.T) {
	s := BuildSummary(map[string]string{
		ConfigBaseDir:    "/opt/st/",
		ConfigVersion:    "2.3.8",
		ConfigDeployMode: "separated",
		ConfigNodeIPs:    "10.0.0.1, 10.0.0.2",
	})
	if s.InstallPath != "/opt/st/apache-seatunnel-2.3.8" {
		t.Fatalf("unexpected install path %q", s.InstallPath)
	}
	if len(s.Nodes) != 2 || s.Nodes[1] != "10.0.0.2" {
		t.Fatalf("unexpected nodes %#v", s.Nodes)
	}
	md := s.Markdown()
	for _, want := range []string{"`/opt/st/apache-seatunnel-2.3.8`", "Deploy mode: separated", "systemctl start seatunnel-worker"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}
