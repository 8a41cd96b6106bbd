// Package commands implements the respcli subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kvwire/respclient/client"
)

var rootCmd = &cobra.Command{
	Use:   "respcli",
	Short: "A command-line client for RESP-speaking servers",
	Long: `respcli dials a RESP server (Redis or anything speaking the same
wire protocol) and issues one command per invocation.

Every flag can also be set through the environment with a RESP_
prefix, e.g. RESP_ADDR=127.0.0.1:6399 respcli ping.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("addr", "127.0.0.1:6399", "server address (host:port)")
	rootCmd.PersistentFlags().Duration("dial-timeout", time.Second, "connection establishment timeout")
	rootCmd.PersistentFlags().Int("inline-threshold", 1000, "inline threshold passed to the client (the encoding is chosen by --inline)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("inline", false, "send the command inline rather than as an array")

	_ = viper.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr"))
	_ = viper.BindPFlag("dial-timeout", rootCmd.PersistentFlags().Lookup("dial-timeout"))
	_ = viper.BindPFlag("inline-threshold", rootCmd.PersistentFlags().Lookup("inline-threshold"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("inline", rootCmd.PersistentFlags().Lookup("inline"))

	viper.SetEnvPrefix("RESP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(pingCmd, getCmd, setCmd, rawCmd)
}

func newLogger() *slog.Logger {
	level := new(slog.LevelVar)
	switch strings.ToLower(viper.GetString("log-level")) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelWarn)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// dial connects to the configured server and returns a ready Conn.
// Callers are responsible for closing it.
func dial(ctx context.Context) (*client.Conn, error) {
	addr := viper.GetString("addr")
	return client.Dial(ctx, "tcp", addr,
		client.WithDialTimeout(viper.GetDuration("dial-timeout")),
		client.WithInlineThreshold(viper.GetInt("inline-threshold")),
		client.WithLogger(newLogger()),
	)
}

// runOne dials, submits a single command built from args, prints its
// reply, and closes the connection gracefully.
func runOne(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	conn, err := dial(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	reply, err := conn.Submit(ctx, client.NewCommand(args...), viper.GetBool("inline"))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatReply(reply))
	return nil
}

func formatReply(r client.Reply) string {
	if r.IsNull() {
		return "(nil)"
	}
	if errText, ok := r.AsError(); ok {
		return "(error) " + errText
	}
	return r.String()
}
