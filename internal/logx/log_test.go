package logx

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func TestConfigureLogLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cases := map[string]zerolog.Level{
		"all":     zerolog.TraceLevel,
		"WARNING": zerolog.WarnLevel,
		" debug ": zerolog.DebugLevel,
		"none":    zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range cases {
		Configure(in)
		if got := zerolog.GlobalLevel(); got != want {
			t.Fatalf("Configure(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestComponentTagsOutput(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	ConfigureOutput("info", &buf)

	l := Component("registry")
	l.Info().Msg("hello")

	if !bytes.Contains(buf.Bytes(), []byte(`"component":"registry"`)) {
		t.Fatalf("expected component field in output, got %s", buf.String())
	}
}
