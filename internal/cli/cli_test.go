package cli

import "testing"

func TestServeCommandFlags(t *testing.T) {
	input := serveCmd.Flags().Lookup("input")
	if input == nil {
		t.Fatal("serve is missing the --input flag")
	}
	if input.DefValue != "events.csv" {
		t.Errorf("unexpected --input default %q", input.DefValue)
	}
	if serveCmd.Flags().Lookup("source") == nil {
		t.Error("serve is missing the --source flag")
	}
}

func TestAnalyzeCommandFlags(t *testing.T) {
	for _, name := range []string{"days", "start", "end", "source", "input", "output", "formats"} {
		if analyzeCmd.Flags().Lookup(name) == nil {
			t.Errorf("analyze is missing the --%s flag", name)
		}
	}
}
