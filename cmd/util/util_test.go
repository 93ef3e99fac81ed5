package util

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
	"testing"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 40)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("line %q is longer than %d", line, Wrap)
		}
	}
	if got := WrapString("  short   text "); got != "short text" {
		t.Errorf("WrapString = %q", got)
	}
}

func TestClientConfigFromFlags(t *testing.T) {
	defer viper.Reset()

	cmd := &cobra.Command{Use: "test"}
	SetupRPCClientFlags(cmd)
	if err := cmd.PersistentFlags().Parse([]string{"--endpoint", "10.0.0.1:9000", "--transport-read-buffer", "64", "--download-dir", "out"}); err != nil {
		t.Fatal(err)
	}
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		t.Fatal(err)
	}

	conf := GetClientConfig()
	if conf.Transport.Endpoint != "10.0.0.1:9000" {
		t.Errorf("endpoint = %q", conf.Transport.Endpoint)
	}
	if conf.Transport.ReadBufferSize != 64*1024 {
		t.Errorf("read buffer = %d", conf.Transport.ReadBufferSize)
	}
	if conf.DownloadDir != "out" || conf.TimeoutSecond != 0 {
		t.Errorf("unexpected config %+v", conf)
	}
}

func TestGetTransport(t *testing.T) {
	defer viper.Reset()

	for _, name := range []string{"tcp", "unix"} {
		viper.Set("transport", name)
		if _, err := GetTransport(); err != nil {
			t.Errorf("client transport %s: %v", name, err)
		}
		if _, err := GetServerTransport(); err != nil {
			t.Errorf("server transport %s: %v", name, err)
		}
	}

	viper.Set("transport", "http")
	if _, err := GetTransport(); err == nil {
		t.Error("http transport accepted")
	}
}
