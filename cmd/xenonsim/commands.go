package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/xenonsim/internal/api"
	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/config"
	"github.com/san-kum/xenonsim/internal/export"
	"github.com/san-kum/xenonsim/internal/metrics"
	"github.com/san-kum/xenonsim/internal/playback"
	"github.com/san-kum/xenonsim/internal/series"
	"github.com/san-kum/xenonsim/internal/session"
	"github.com/san-kum/xenonsim/internal/storage"
	"github.com/san-kum/xenonsim/internal/tui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	drv := playback.NewManualDriver()
	buf := chart.NewBuffer()
	ext := metrics.NewExtremes()
	ctrl, err := newController(cfg, client, chart.Fanout{buf, ext}, drv)
	if err != nil {
		return err
	}

	return tui.Run(tui.New(ctrl, drv, buf, tui.Options{
		FrameRate: cfg.FrameRate,
		Timeout:   cfg.RequestTimeout,
		Store:     storage.New(cfg.DataDir),
		Extremes:  ext,
	}))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg, true)
	if err != nil {
		return err
	}
	defer closer.Close()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := chart.NewHub()
	ext := metrics.NewExtremes()
	drv := playback.NewTickerDriver(cfg.FrameRate)
	go drv.Run(ctx)

	ctrl, err := newController(cfg, client, chart.Fanout{hub, ext}, drv)
	if err != nil {
		return err
	}
	svc := api.NewSessionService(ctrl, client, hub, ext, storage.New(cfg.DataDir))
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: api.NewServer(svc, hub)}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("xenonsim listening", "addr", cfg.ListenAddr, "docs", "http://"+cfg.ListenAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	ctrl.Reset()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
		return err
	}
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return fmt.Errorf("unknown preset: %s", preset)
		}
		if !cmd.Flags().Changed("power") {
			cfg.Power = p.Power
		}
		if !cmd.Flags().Changed("days") {
			days = p.Duration
		}
	}
	if err := session.ValidateDuration(days); err != nil {
		return err
	}

	closer, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	drv := playback.NewTickerDriver(cfg.FrameRate)
	go drv.Run(ctx)

	buf := chart.NewBuffer()
	ext := metrics.NewExtremes()
	ctrl, err := newController(cfg, client, chart.Fanout{buf, ext}, drv)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	err = ctrl.Extend(reqCtx, days)
	cancel()
	if err != nil {
		return err
	}

	fmt.Printf("playing %.4g days at %s\n", days, session.FormatPercent(cfg.Power))
	if err := waitIdle(ctx, ctrl, time.Second/time.Duration(cfg.FrameRate)); err != nil {
		ctrl.Reset()
		return err
	}

	st := ctrl.Snapshot()
	traces := buf.Snapshot()
	printChart(traces)
	fmt.Printf("t=%.4f d  I=%.4g  Xe=%.4g  Pm=%.4g  Sm=%.4g\n\n",
		st.LastKnown.Time, st.LastKnown.Iodine, st.LastKnown.Xenon, st.LastKnown.Promethium, st.LastKnown.Samarium)
	if err := printExtremes(ext.All()); err != nil {
		return err
	}

	if save {
		store := storage.New(cfg.DataDir)
		if err := store.Init(); err != nil {
			return err
		}
		id, err := store.Save(storage.ExportMetadata{Power: st.Power, Speed: st.Speed, Phi0: st.Phi0, LastKnown: st.LastKnown}, traces)
		if err != nil {
			return err
		}
		fmt.Printf("saved: %s\n", id)
	}
	return nil
}

func waitIdle(ctx context.Context, ctrl *session.Controller, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !ctrl.Snapshot().Playing {
				return nil
			}
		}
	}
}

func printChart(traces []chart.Trace) {
	for _, panel := range []series.Panel{series.PanelConcentration, series.PanelReactivity} {
		if plot := chart.RenderPanel(traces, panel, width, height); plot != "" {
			fmt.Println(plot)
			fmt.Println()
		}
	}
}

func printExtremes(all []metrics.Extreme) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tMAX\tAT\tMIN\tAT")
	for _, x := range all {
		label := x.Name
		if info, ok := series.Lookup(series.Variable(x.Name)); ok {
			label = info.Label
		}
		fmt.Fprintf(w, "%s\t%.4g\t%.3f d\t%.4g\t%.3f d\n", label, x.Max, x.MaxTime, x.Min, x.MinTime)
	}
	return w.Flush()
}

func showEquilibrium(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	eq, err := client.Equilibrium(ctx, cfg.Phi0)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "phi_0\t%.4g\n", cfg.Phi0)
	fmt.Fprintf(w, "iodine\t%.4g\n", eq.IodineInfinity)
	fmt.Fprintf(w, "xenon\t%.4g\n", eq.XenonInfinity)
	fmt.Fprintf(w, "promethium\t%.4g\n", eq.PromethiumInfinity)
	fmt.Fprintf(w, "samarium\t%.4g\n", eq.SamariumInfinity)
	fmt.Fprintf(w, "xe reactivity\t%.4g\n", eq.XeReactivityInfinity)
	fmt.Fprintf(w, "sm reactivity\t%.4g\n", eq.SmReactivityInfinity)
	fmt.Fprintf(w, "max xenon\t%.4g\tat %.3f d\n", eq.MaxXenon, eq.MaxXenonTime)
	fmt.Fprintf(w, "max xe reactivity\t%.4g\tat %.3f d\n", eq.MaxXeReactivity, eq.MaxXeReactivityTime)
	return w.Flush()
}

func listExports(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exports, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	if len(exports) == 0 {
		fmt.Println("no exports found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSPAN\tPOWER\tPHI_0")
	for _, e := range exports {
		fmt.Fprintf(w, "%s\t%s\t%.2f-%.2f d\t%s\t%.3g\n",
			e.ID,
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Start, e.End,
			session.FormatPercent(e.Power),
			e.Phi0,
		)
	}
	return w.Flush()
}

func plotExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traces, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(traces) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("export: %s\n", meta.ID)
	fmt.Printf("span: %.3f to %.3f days\n", meta.Start, meta.End)
	fmt.Printf("power: %s\n\n", session.FormatPercent(meta.Power))
	printChart(traces)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	traces, err := storage.New(cfg.DataDir).LoadSeries(args[0])
	if err != nil {
		return err
	}

	svg := export.ChartToSVG(traces, width, height)
	if svg == "" {
		return fmt.Errorf("no data to render")
	}
	path := output
	if path == "" {
		path = filepath.Clean(args[0] + ".svg")
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	if output != "" {
		if err := st.ExportJSON(args[0], output); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", output)
		return nil
	}
	data, err := st.ReadExport(args[0])
	if err != nil {
		return err
	}
	return storage.WriteExportJSON(os.Stdout, data)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPOWER\tDAYS\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%.4g\t%s\n", name, session.FormatPercent(p.Power), p.Duration, p.Description)
	}
	return w.Flush()
}
