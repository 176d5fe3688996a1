// Command orchestrator runs, simulates and validates playlist-driven
// presentations.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AaronLay10/SentientPlayer/internal/logging"
)

// Viper keys. Each may also be set as XIMPEL_<KEY> with dashes as
// underscores, e.g. XIMPEL_PLAYLIST.
const (
	keyConfig   = "config"
	keyPlaylist = "playlist"
	keyXMLConf  = "xml-config"
	keyLogLevel = "log-level"
	keyPort     = "port"
	keyShowID   = "show-id"
)

func init() {
	viper.SetEnvPrefix("XIMPEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	flags := rootCmd.PersistentFlags()
	flags.StringP(keyConfig, "c", "", "Path to engine.yaml")
	lo.Must0(viper.BindPFlag(keyConfig, flags.Lookup(keyConfig)))

	flags.StringP(keyPlaylist, "p", "", "Path to the playlist XML (overrides show.playlist)")
	lo.Must0(viper.BindPFlag(keyPlaylist, flags.Lookup(keyPlaylist)))

	flags.String(keyXMLConf, "", "Path to a standalone XML config document (overrides show.config)")
	lo.Must0(viper.BindPFlag(keyXMLConf, flags.Lookup(keyXMLConf)))

	flags.String(keyLogLevel, "", "Log level (debug, info, warn, error)")
	lo.Must0(viper.BindPFlag(keyLogLevel, flags.Lookup(keyLogLevel)))

	flags.String(keyShowID, "", "Show id used for the journal and MQTT topics")
	lo.Must0(viper.BindPFlag(keyShowID, flags.Lookup(keyShowID)))

	rootCmd.AddCommand(runCmd, simulateCmd, validateCmd, schemaCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:           "orchestrator",
	Short:         "Playlist-driven interactive presentation player",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		_, _ = fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}

// setupLogging applies the logging section of cfg, letting the
// --log-level flag win.
func setupLogging(level, format string) {
	if flag := viper.GetString(keyLogLevel); flag != "" {
		level = flag
	}
	if err := logging.Setup(level, format, os.Stderr); err != nil {
		log.WithError(err).Warn("logging setup")
	}
}
