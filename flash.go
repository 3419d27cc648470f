package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/janch32/uartflash/flash"
	"github.com/janch32/uartflash/memory"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagNoErase  bool
	flagNoVerify bool
	flagRetries  int
	flagLimit    int
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase the whole flash",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := newFlasher()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := f.Erase(ctx); err != nil {
			return err
		}

		logrus.Info("flash erased")
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write FILE",
	Short: "Erase, write and verify a firmware image (.bin, .hex or TI-Text .txt)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := loadImage(args[0])
		if err != nil {
			return err
		}

		f, err := newFlasher()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if flagNoErase {
			err = f.Write(ctx, image)
			if err == nil && !flagNoVerify {
				err = f.Verify(ctx, image)
			}
		} else {
			err = f.Program(ctx, image)
		}

		if err != nil {
			return err
		}

		logrus.WithField("bytes", len(image)).Info("flashing completed successfully")
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify FILE",
	Short: "Compare flash content with a firmware image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := loadImage(args[0])
		if err != nil {
			return err
		}

		f, err := newFlasher()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := f.Verify(ctx, image); err != nil {
			return err
		}

		logrus.Info("flash matches image")
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read OUT",
	Short: "Read the flash into a raw binary file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := newFlasher()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		data, err := f.Dump(ctx, flagLimit)
		if err != nil {
			return err
		}

		if err := os.WriteFile(args[0], data, 0o644); err != nil {
			return errors.Wrap(err, "save dump")
		}

		logrus.WithFields(logrus.Fields{
			"bytes": len(data),
			"file":  args[0],
		}).Info("flash saved")
		return nil
	},
}

func init() {
	writeCmd.Flags().BoolVar(&flagNoErase, "no-erase", false, "do not erase before writing")
	writeCmd.Flags().BoolVar(&flagNoVerify, "no-verify", false, "skip read-back verification")
	writeCmd.Flags().IntVar(&flagRetries, "retries", 3, "re-sends of a rejected chunk")
	eraseCmd.Flags().IntVar(&flagRetries, "retries", 3, "re-sends of a rejected erase")
	readCmd.Flags().IntVar(&flagLimit, "limit", 0, "max. bytes to read (0 reads until the device reports no data)")

	rootCmd.AddCommand(eraseCmd, writeCmd, verifyCmd, readCmd)
}

func newFlasher() (*flash.Flasher, error) {
	port, err := resolvePort()
	if err != nil {
		return nil, err
	}

	return flash.New(port,
		flash.WithRetries(flagRetries),
		flash.WithVerify(!flagNoVerify),
		flash.WithSession(flagKeepOpen),
		flash.WithProgress(os.Stderr),
		flash.WithLogger(logrus.StandardLogger()),
	), nil
}

func loadImage(path string) ([]byte, error) {
	mem, err := memory.LoadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load firmware")
	}

	image, err := mem.Image()
	if err != nil {
		return nil, errors.Wrap(err, path)
	}

	logrus.WithFields(logrus.Fields{
		"file":  path,
		"bytes": len(image),
	}).Info("firmware loaded")

	return image, nil
}
