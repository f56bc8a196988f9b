package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	dataDir    string
	solverURL  string
	power      float64
	speed      float64
	phi0       float64
	frameRate  int
	listenAddr string
	logLevel   string
	// play
	days   float64
	preset string
	save   bool
	// plot / export-svg
	width  int
	height int
	output string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "xenonsim",
		Short:        "iodine/xenon/samarium poisoning simulator",
		SilenceUsage: true,
		RunE:         runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", "", "data directory for exports")
	pf.StringVar(&solverURL, "solver", "", "solver base url")
	pf.Float64Var(&power, "power", 0, "reactor power fraction [0,1]")
	pf.Float64Var(&speed, "speed", 0, "animation speed [0,100]")
	pf.Float64Var(&phi0, "phi0", 0, "full-power neutron flux")
	pf.IntVar(&frameRate, "fps", 0, "frame rate")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal session",
		RunE:  runTUI,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run a session behind the control api and chart websocket",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address")

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "play one continuation headlessly and print the chart",
		RunE:  runPlay,
	}
	playCmd.Flags().Float64Var(&days, "days", 0, "simulation time in days")
	playCmd.Flags().StringVar(&preset, "preset", "", "use an operating preset for power and duration")
	playCmd.Flags().BoolVar(&save, "save", false, "save the chart as an export")
	playCmd.Flags().IntVar(&width, "width", 80, "plot width")
	playCmd.Flags().IntVar(&height, "height", 12, "plot height")

	equilibriumCmd := &cobra.Command{
		Use:   "equilibrium",
		Short: "show equilibrium and post-shutdown extremum values",
		RunE:  showEquilibrium,
	}

	exportsCmd := &cobra.Command{
		Use:   "exports",
		Short: "list saved chart exports",
		RunE:  listExports,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [export_id]",
		Short: "plot a saved export",
		Args:  cobra.ExactArgs(1),
		RunE:  plotExport,
	}
	plotCmd.Flags().IntVar(&width, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&height, "height", 12, "plot height")

	svgCmd := &cobra.Command{
		Use:   "export-svg [export_id]",
		Short: "render a saved export to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().IntVar(&width, "width", 900, "image width")
	svgCmd.Flags().IntVar(&height, "height", 320, "panel height")
	svgCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <export_id>.svg)")

	jsonCmd := &cobra.Command{
		Use:   "export-json [export_id]",
		Short: "write a saved export as one JSON document",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	jsonCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list operating presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(tuiCmd, serveCmd, playCmd, equilibriumCmd, exportsCmd, plotCmd, svgCmd, jsonCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
