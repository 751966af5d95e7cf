// Command ntfsrecover parses an NTFS volume's Master File Table directly
// and recovers files and alternate data streams matching glob patterns.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ntfsgo/mftrecover/internal/bootsect"
	"github.com/ntfsgo/mftrecover/internal/device"
	"github.com/ntfsgo/mftrecover/internal/disk"
	"github.com/ntfsgo/mftrecover/internal/mft"
	"github.com/ntfsgo/mftrecover/internal/recovery"
)

// patternList collects repeated -p/--pattern flags.
type patternList []string

func (p *patternList) String() string { return strings.Join(*p, ",") }
func (p *patternList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

const (
	exitOK            = 0
	exitArgError      = 1
	exitNotNtfs       = 2
	exitBootstrapFail = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ntfsrecover", flag.ContinueOnError)

	var (
		sectorSize  uint
		clusterSize uint
		mftPath     string
		saveMFT     string
		patterns    patternList
		outdir      string
		listDevices bool
	)

	fs.UintVar(&sectorSize, "sector-size", 0, "Override bytes_per_sector")
	fs.UintVar(&clusterSize, "cluster-size", 0, "Override sectors_per_cluster")
	fs.StringVar(&mftPath, "mft", "", "Skip on-disk MFT bootstrap; use file content as MFT")
	fs.StringVar(&saveMFT, "save-mft", "", "Write the materialized MFT to this file")
	fs.Var(&patterns, "p", "Repeatable; glob to match. Without any -p, list only.")
	fs.Var(&patterns, "pattern", "Alias for -p")
	fs.StringVar(&outdir, "o", "", "Output root; created if absent; required when -p is given")
	fs.StringVar(&outdir, "outdir", "", "Alias for -o")
	fs.BoolVar(&listDevices, "list-devices", false, "List available storage devices and exit")

	if err := fs.Parse(args); err != nil {
		return exitArgError
	}

	if listDevices {
		return runListDevices()
	}

	rest := fs.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: ntfsrecover [flags] <disk>")
		return exitArgError
	}
	diskPath := rest[0]

	if len(patterns) > 0 && outdir == "" {
		fmt.Fprintln(os.Stderr, "ntfsrecover: -o/--outdir is required when -p/--pattern is given")
		return exitArgError
	}

	r, err := disk.Open(diskPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ntfsrecover: %v\n", err)
		return exitArgError
	}
	defer r.Close()

	sig, err := disk.DetectNTFSSignature(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ntfsrecover: %v\n", err)
		return exitArgError
	}
	switch sig {
	case disk.SignatureNone:
		fmt.Fprintln(os.Stderr, "ntfsrecover: not an NTFS volume")
		return exitNotNtfs
	case disk.SignatureCloned:
		r.Close()
		strippedPath, err := disk.StripClonedImage(diskPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ntfsrecover: failed to strip cloned-image prefix: %v\n", err)
			return exitArgError
		}
		fmt.Fprintf(os.Stderr, "ntfsrecover: cloned image detected, wrote %s\n", strippedPath)
		r, err = disk.Open(strippedPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ntfsrecover: %v\n", err)
			return exitArgError
		}
		defer r.Close()
	}

	if outdir != "" {
		if err := os.MkdirAll(outdir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "ntfsrecover: failed to create outdir: %v\n", err)
			return exitArgError
		}
	}

	image, bs, err := recovery.Bootstrap(r, recovery.BootstrapOptions{
		MFTPath:     mftPath,
		SaveMFTPath: saveMFT,
		Overrides: bootsect.Overrides{
			SectorSize:  uint16(sectorSize),
			ClusterSize: uint8(clusterSize),
		},
		Log: os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ntfsrecover: %v\n", err)
		return exitBootstrapFail
	}

	bytesPerCluster := int64(4096)
	if bs != nil {
		bytesPerCluster = bs.BytesPerCluster
	}

	stream := mft.BuildStream(image, bytesPerCluster)
	for idx, w := range stream.Warnings {
		fmt.Fprintf(os.Stderr, "ntfsrecover: record %d: %v\n", idx, w)
	}

	driver := recovery.NewDriver(stream, r, recovery.Options{
		Patterns: []string(patterns),
		OutDir:   outdir,
		Log:      os.Stdout,
	})
	if _, err := driver.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ntfsrecover: %v\n", err)
	}

	return exitOK
}

func runListDevices() int {
	devices, err := device.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ntfsrecover: %v\n", err)
		return exitArgError
	}
	for _, d := range devices {
		fmt.Printf("%s\t%s\t%s\t%s\n", d.Path, d.Name, d.SizeHuman, d.Filesystem)
	}
	return exitOK
}
