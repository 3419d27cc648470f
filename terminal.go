package main

import (
	"os"

	"github.com/janch32/uartflash/terminal"
	"github.com/janch32/uartflash/uartbsl"
	"github.com/spf13/cobra"
)

var flagBaud int

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open a raw terminal on the device port",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := resolvePort()
		if err != nil {
			return err
		}

		return terminal.Open(port, flagBaud, os.Stdin, os.Stdout)
	},
}

func init() {
	consoleCmd.Flags().IntVar(&flagBaud, "baud", uartbsl.BaudRate, "line speed")

	rootCmd.AddCommand(consoleCmd)
}
