package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"example.com/list":        "http://example.com/list",
		"  https://example.com  ": "https://example.com",
		"HTTP://Example.com":      "HTTP://Example.com",
		"":                        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeURL(in), in)
	}
}

func TestApplyFlagsOnlyChanged(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&maxPages, "max-pages", -1, "")
	cmd.Flags().DurationVar(&waitCeiling, "wait-ceiling", time.Minute, "")
	cmd.Flags().BoolVar(&showUI, "showui", false, "")
	cmd.Flags().BoolVar(&stealthMode, "stealth", false, "")
	cmd.Flags().StringVar(&proxyURL, "proxy", "", "")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "")
	cmd.Flags().StringVar(&logFile, "log-file", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--max-pages", "4", "--showui"}))

	v := viper.New()
	v.Set("max_pages", 9)
	v.Set("logger.level", "debug")
	applyFlags(cmd, v)

	assert.Equal(t, 4, v.GetInt("max_pages"))
	assert.False(t, v.GetBool("browser.headless"))
	assert.Equal(t, "debug", v.GetString("logger.level"))
	assert.False(t, v.IsSet("browser.stealth"))
}
