package procutil_test

import (
	"context"
	"testing"

	"cursedclipper/internal/procutil"
)

func TestCommand_BuildsRunnableCmd(t *testing.T) {
	cmd := procutil.Command(context.Background(), "echo", "hi")
	if cmd.Path == "" && cmd.Args == nil {
		t.Fatal("expected a populated exec.Cmd")
	}
}

func TestCommandUTF8_SetsLocaleEnv(t *testing.T) {
	cmd := procutil.CommandUTF8(context.Background(), "echo", "hi")

	found := map[string]bool{}
	for _, kv := range cmd.Env {
		switch kv {
		case "PYTHONIOENCODING=utf-8":
			found["PYTHONIOENCODING"] = true
		case "PYTHONUTF8=1":
			found["PYTHONUTF8"] = true
		case "LC_ALL=en_US.UTF-8":
			found["LC_ALL"] = true
		}
	}
	for _, key := range []string{"PYTHONIOENCODING", "PYTHONUTF8", "LC_ALL"} {
		if !found[key] {
			t.Errorf("expected env to contain %s", key)
		}
	}
}
