package main

import (
	"os"

	"github.com/janch32/uartflash/discover"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Environment variable with the default port
const envPort = "UARTFLASH_PORT"

var (
	flagPort     string
	flagDebug    bool
	flagKeepOpen bool
)

var rootCmd = &cobra.Command{
	Use:           "uartflash",
	Short:         "Flash firmware over the UART bootloader",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		if flagDebug {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return discover.PrintPorts(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagPort, "port", "p", "", "serial port of the device (default $"+envPort+" or first USB port)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "log every frame")
	rootCmd.PersistentFlags().BoolVar(&flagKeepOpen, "keep-open", false, "keep the port open for the whole operation")

	rootCmd.AddCommand(listCmd)
}

// Port from the flag, the environment, or auto discovery
func resolvePort() (string, error) {
	if flagPort != "" {
		return flagPort, nil
	}

	if port := os.Getenv(envPort); port != "" {
		return port, nil
	}

	logrus.Info("port not specified, running auto port discovery...")
	port, err := discover.FirstUSBPort()
	if err != nil {
		return "", err
	}

	logrus.WithField("port", port.String()).Info("using discovered port")
	return port.Name, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}
