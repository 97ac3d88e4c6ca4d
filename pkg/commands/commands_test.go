package commands

import (
	"testing"

	"tableflip.dev/reel/pkg/config"
)

func TestNewRegistersCommands(t *testing.T) {
	cmd := New()
	for _, name := range []string{"play", "list", "info", "history", "version"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Fatalf("expected subcommand %q, got %v (%v)", name, sub, err)
		}
	}
}

func TestKioskFlagsBindToConfig(t *testing.T) {
	for _, c := range []string{"", "play"} {
		cmd := New()
		if c != "" {
			sub, _, err := cmd.Find([]string{c})
			if err != nil {
				t.Fatalf("find %s: %v", c, err)
			}
			cmd = sub
		}
		for name := range config.FlagKeys {
			if cmd.Flags().Lookup(name) == nil {
				t.Fatalf("%s: expected --%s to be registered", cmd.Name(), name)
			}
		}
	}
}

func TestInfoRequiresOneFile(t *testing.T) {
	cmd := New()
	sub, _, err := cmd.Find([]string{"info"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if err := sub.Args(sub, nil); err == nil {
		t.Fatalf("expected an error without a file")
	}
	if err := sub.Args(sub, []string{"a.mkv"}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
