// mmapfsmount mounts an mmapfs image, backed by a regular file, as a
// FUSE filesystem. The file is created and sized on first mount; on
// every subsequent mount the existing bytes are reused as-is, which is
// what demonstrates spec.md's remount guarantee (R1) outside of tests.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/absfs/mmapfs"
	"github.com/absfs/mmapfs/fuseadapter"
	"github.com/absfs/mmapfs/mmapregion"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var imagePath string
	var mountpoint string
	var sizeMiB int64
	var allowOther bool

	flagSet := pflag.NewFlagSet("mmapfsmount", pflag.ContinueOnError)
	flagSet.StringVar(&imagePath, "image", "", "path to the backing image file (created if it does not exist)")
	flagSet.StringVar(&mountpoint, "mountpoint", "", "directory to mount the filesystem at")
	flagSet.Int64Var(&sizeMiB, "size-mib", 16, "image size in MiB, used only when creating a new image")
	flagSet.BoolVar(&allowOther, "allow-other", false, "allow other users to access the mount (requires user_allow_other)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			flagSet.PrintDefaults()
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.PrintDefaults()
		return nil
	}
	if imagePath == "" || mountpoint == "" {
		flagSet.PrintDefaults()
		return fmt.Errorf("--image and --mountpoint are required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	size := sizeMiB * 1024 * 1024
	if info, err := os.Stat(imagePath); err == nil && info.Size() > 0 {
		size = info.Size()
	}

	region, err := mmapregion.OpenFile(imagePath, size)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer region.Close()

	fs, err := mmapfs.New(region.Bytes())
	if err != nil {
		return fmt.Errorf("mounting image: %w", err)
	}

	server, err := fuseadapter.Mount(fuseadapter.Options{
		Mountpoint: mountpoint,
		FS:         fs,
		AllowOther: allowOther,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("mounting FUSE filesystem: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("unmounting", "mountpoint", mountpoint)
		server.Unmount()
	}()

	server.Wait()
	return region.Sync()
}
