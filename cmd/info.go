package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "List available platforms and devices",
	RunE:  showInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func showInfo(cmd *cobra.Command, args []string) error {
	drv, err := newDriver()
	if err != nil {
		return err
	}
	platforms, err := drv.Platforms()
	if err != nil {
		return err
	}

	fmt.Printf("Driver: %s\n", drv.Name())
	for i, p := range platforms {
		info := p.Info()
		fmt.Printf("Platform %d: %s (%s, %s)\n", i, info.Name, info.Vendor, info.Version)
		devices, err := p.Devices()
		if err != nil {
			fmt.Printf("  devices: %v\n", err)
			continue
		}
		for j, d := range devices {
			di := d.Info()
			limits := d.Limits()
			fmt.Printf("  Device %d: %s [%s]\n", j, di.Name, di.Type)
			fmt.Printf("    Vendor:          %s\n", di.Vendor)
			fmt.Printf("    Version:         %s\n", di.Version)
			fmt.Printf("    Compute units:   %d\n", di.MaxComputeUnits)
			fmt.Printf("    Max work group:  %d\n", limits.MaxWorkGroupSize)
			fmt.Printf("    Max allocation:  %d\n", limits.MaxMemAllocSize)
			fmt.Printf("    Global memory:   %d\n", limits.GlobalMemSize)
		}
	}
	return nil
}
