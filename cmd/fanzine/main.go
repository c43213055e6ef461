/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"fanzine/internal/blobstore"
	"fanzine/internal/config"
	"fanzine/internal/crash"
	"fanzine/internal/domain"
	"fanzine/internal/export"
	"fanzine/internal/layout"
	applog "fanzine/internal/log"
	"fanzine/internal/photoserver"
	"fanzine/internal/storage"
	"fanzine/internal/ui"
	"fanzine/internal/version"
	"fanzine/internal/watch"
	"fanzine/internal/workspace"
)

func usage() {
	fmt.Println("Fanzine: one-sheet 8-page booklet maker")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fanzine version|-v|--version                   Show version")
	fmt.Println("  fanzine init <dir>                              Create a new fanzine project")
	fmt.Println("  fanzine add <dir> <files...>                    Import photos (max 8 per booklet)")
	fmt.Println("  fanzine remove <dir> <index>                    Remove the photo in a grid slot")
	fmt.Println("  fanzine swap <dir> <a> <b>                      Swap the photos of two grid slots")
	fmt.Println("  fanzine text <dir> <slot> <content> [x y size color font bg]")
	fmt.Println("                                                  Add a text overlay to a grid slot")
	fmt.Println("  fanzine crop <dir> <slot> <offX> <offY> <scale> Set the pan/zoom of a grid slot")
	fmt.Println("  fanzine gap <dir> <n>                           Set the gap between cells")
	fmt.Println("  fanzine render <dir> <out.png> [--guides] [--labels] [--width N]")
	fmt.Println("  fanzine export <dir> [out.pdf] [--no-guides] [--preset print|web|proof]")
	fmt.Println("  fanzine order <dir>                             Print reading order and spreads")
	fmt.Println("  fanzine snapshot <dir> <out.json>               Write a JSON snapshot of the session")
	fmt.Println("  fanzine import <dir> <snapshot.json>            Replace the session with a snapshot")
	fmt.Println("  fanzine watch <dir>                             Re-render exports/preview.png on changes")
	fmt.Println("  fanzine serve                                   Run the photo upload server")
	fmt.Println("  fanzine ui [<dir>]                              Launch desktop UI (build with -tags fyne)")
}

type command struct {
	minArgs int
	run     func(ctx context.Context, args []string) error
}

var commands = map[string]command{
	"init":     {1, cmdInit},
	"add":      {2, cmdAdd},
	"remove":   {2, cmdRemove},
	"swap":     {3, cmdSwap},
	"text":     {3, cmdText},
	"crop":     {5, cmdCrop},
	"gap":      {2, cmdGap},
	"render":   {2, cmdRender},
	"export":   {1, cmdExport},
	"order":    {1, cmdOrder},
	"snapshot": {2, cmdSnapshot},
	"import":   {2, cmdImport},
	"watch":    {1, cmdWatch},
	"serve":    {0, cmdServe},
}

// target is filled in once a project is open so a crash can autosave it.
var target = &crash.Target{}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover(target)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Fanzine")
		fmt.Println(version.String())
		return
	case "help", "-h", "--help":
		usage()
		return
	case "ui":
		var dir string
		if len(args) >= 3 {
			dir = args[2]
		}
		if err := ui.Run(dir); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		return
	}

	cmd, ok := commands[args[1]]
	if !ok {
		fmt.Println("unknown command:", args[1])
		usage()
		os.Exit(2)
	}
	if len(args)-2 < cmd.minArgs {
		fmt.Printf("%s requires %d argument(s)\n", args[1], cmd.minArgs)
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := cmd.run(ctx, args[2:])
	var ue usageError
	switch {
	case errors.As(err, &ue):
		fmt.Println(ue.Error())
		usage()
		stop()
		os.Exit(2)
	case err != nil:
		l.Error(args[1]+" failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		stop()
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

// parseArgs parses flags that may appear anywhere among the positional arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, usageError(err.Error())
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return pos, nil
		}
		pos = append(pos, rest[0])
		args = rest[1:]
	}
}

func need(args []string, n int, what string) error {
	if len(args) < n {
		return usageError(what)
	}
	return nil
}

func atoi(s, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, usageError(fmt.Sprintf("%s must be a number, got %q", name, s))
	}
	return n, nil
}

func atof(s, name string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, usageError(fmt.Sprintf("%s must be a number, got %q", name, s))
	}
	return f, nil
}

// openWorkspace is replaced in tests to stay off the user config and keyring.
var openWorkspace = workspace.Open

// openProject opens dir as a workspace and loads its document.
func openProject(ctx context.Context, dir string, create bool) (*workspace.Workspace, *domain.Document, error) {
	abs, _ := filepath.Abs(dir)
	ws, err := openWorkspace(ctx, abs, create)
	if err != nil {
		return nil, nil, err
	}
	doc, err := ws.Document(ctx)
	if err != nil {
		_ = ws.Close()
		return nil, nil, err
	}
	target.Root = ws.Root()
	target.Document = func() *domain.Document { return doc }
	return ws, doc, nil
}

// edit loads the document of dir, applies fn and saves the result.
func edit(ctx context.Context, dir string, fn func(ws *workspace.Workspace, doc *domain.Document) error) error {
	ws, doc, err := openProject(ctx, dir, false)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()
	if err := fn(ws, doc); err != nil {
		return err
	}
	return ws.Save(ctx, doc)
}

func cmdInit(ctx context.Context, args []string) error {
	ws, _, err := openProject(ctx, args[0], true)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()
	fmt.Println("Created project at", ws.Root())
	return nil
}

func cmdAdd(ctx context.Context, args []string) error {
	return edit(ctx, args[0], func(ws *workspace.Workspace, doc *domain.Document) error {
		items, err := ws.ImportFiles(ctx, doc, args[1:])
		if errors.Is(err, domain.ErrTooManyPhotos) {
			fmt.Printf("Booklet is full: imported %d of %d photos.\n", len(items), len(args)-1)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d photos (%d/%d).\n", len(items), len(doc.Photos), domain.MaxPhotos)
		return nil
	})
}

func cmdRemove(ctx context.Context, args []string) error {
	i, err := atoi(args[1], "index")
	if err != nil {
		return err
	}
	return edit(ctx, args[0], func(_ *workspace.Workspace, doc *domain.Document) error {
		p, err := doc.RemovePhoto(i)
		if err != nil {
			return err
		}
		fmt.Println("Removed", p.ID)
		return nil
	})
}

func cmdSwap(ctx context.Context, args []string) error {
	a, err := atoi(args[1], "a")
	if err != nil {
		return err
	}
	b, err := atoi(args[2], "b")
	if err != nil {
		return err
	}
	return edit(ctx, args[0], func(_ *workspace.Workspace, doc *domain.Document) error {
		if !doc.Swap(a, b) {
			return fmt.Errorf("cannot swap %d and %d with %d photos", a, b, len(doc.Photos))
		}
		return nil
	})
}

func cmdText(ctx context.Context, args []string) error {
	slot, err := atoi(args[1], "slot")
	if err != nil {
		return err
	}
	opt := args[3:]
	return edit(ctx, args[0], func(_ *workspace.Workspace, doc *domain.Document) error {
		t, err := doc.AddText(slot, args[2])
		if err != nil {
			return err
		}
		err = doc.UpdateText(slot, t.ID, func(pt *domain.PageText) {
			if len(opt) >= 2 {
				if x, err := atof(opt[0], "x"); err == nil {
					pt.X = x
				}
				if y, err := atof(opt[1], "y"); err == nil {
					pt.Y = y
				}
			}
			if len(opt) >= 3 {
				if s, err := domain.ParseTextSize(opt[2]); err == nil {
					pt.Size = s
				}
			}
			if len(opt) >= 4 {
				if c, err := domain.ParseTextColor(opt[3]); err == nil {
					pt.Color = c
				}
			}
			if len(opt) >= 5 {
				if f, err := domain.ParseTextFont(opt[4]); err == nil {
					pt.Font = f
				}
			}
			if len(opt) >= 6 {
				pt.ShowBg, _ = strconv.ParseBool(opt[5])
			}
		})
		if err != nil {
			return err
		}
		fmt.Println("Added text", t.ID, "to", layout.LabelKey(slot))
		return nil
	})
}

func cmdCrop(ctx context.Context, args []string) error {
	slot, err := atoi(args[1], "slot")
	if err != nil {
		return err
	}
	var c domain.CropTransform
	if c.OffsetX, err = atof(args[2], "offX"); err != nil {
		return err
	}
	if c.OffsetY, err = atof(args[3], "offY"); err != nil {
		return err
	}
	if c.Scale, err = atof(args[4], "scale"); err != nil {
		return err
	}
	return edit(ctx, args[0], func(_ *workspace.Workspace, doc *domain.Document) error {
		return doc.SetCrop(slot, c)
	})
}

func cmdGap(ctx context.Context, args []string) error {
	g, err := atof(args[1], "gap")
	if err != nil {
		return err
	}
	return edit(ctx, args[0], func(_ *workspace.Workspace, doc *domain.Document) error {
		doc.SetGap(g)
		return nil
	})
}

func cmdRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	guides := fs.Bool("guides", false, "draw fold and cut guides")
	labels := fs.Bool("labels", false, "draw page labels")
	width := fs.Int("width", 0, "output width in pixels (default print size)")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := need(pos, 2, "render requires <dir> and <out.png>"); err != nil {
		return err
	}
	ws, doc, err := openProject(ctx, pos[0], false)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()
	out := pos[1]
	opt := export.PNGOptions{Width: *width, ShowGuides: *guides, ShowLabels: *labels, T: ws.T}
	if err := ws.Exporter.ExportPNG(ctx, doc, out, opt); err != nil {
		return err
	}
	fmt.Println("Wrote", out)
	return nil
}

func cmdExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	noGuides := fs.Bool("no-guides", false, "omit fold and cut guides")
	preset := fs.String("preset", "", "batch export preset: print, web or proof")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := need(pos, 1, "export requires <dir>"); err != nil {
		return err
	}
	ws, doc, err := openProject(ctx, pos[0], false)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if *preset != "" {
		p, err := export.ParsePreset(*preset)
		if err != nil {
			return usageError(err.Error())
		}
		opt := export.BatchOptions{Preset: p, JPEGQuality: ws.Config.Export.JPEGQuality, T: ws.T}
		if *noGuides {
			off := false
			opt.IncludeGuides = &off
		}
		written, err := ws.Exporter.BatchExport(ctx, doc, ws.Project.ExportsDir(), opt)
		for _, w := range written {
			fmt.Println("Wrote", w)
		}
		return err
	}

	var name string
	if len(pos) > 1 {
		name = pos[1]
	}
	out := ws.ExportPath(name)
	opt := ws.PDFOptions()
	if *noGuides {
		opt.ShowGuides = false
	}
	if err := ws.Exporter.ExportPDF(ctx, doc, out, opt); err != nil {
		return err
	}
	fmt.Println("Wrote", out)
	return nil
}

func cmdOrder(ctx context.Context, args []string) error {
	ws, doc, err := openProject(ctx, args[0], false)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	// photos are stored by grid index, like crops and texts
	grid := make([]string, layout.SlotCount)
	for i := range grid {
		grid[i] = "-"
		if i < len(doc.Photos) {
			grid[i] = doc.Photos[i].ID
		}
	}
	fmt.Println("Reading order:")
	for i, id := range layout.ReadingOrder(grid) {
		gi, _ := layout.GridIndexForReading(i)
		fmt.Printf("  %d. %-10s slot %d  %s\n", i+1, ws.T(layout.LabelKey(gi)), gi, id)
	}
	fmt.Println("Spreads:")
	labels := layout.SpreadLabels()
	for i, sp := range layout.Spreads(grid) {
		right := "-"
		if sp.Right != nil {
			right = *sp.Right
		}
		fmt.Printf("  %s | %s: %s | %s\n", ws.T(labels[i][0]), ws.T(labels[i][1]), *sp.Left, right)
	}
	return nil
}

func cmdSnapshot(ctx context.Context, args []string) error {
	ws, _, err := openProject(ctx, args[0], false)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()
	snap, err := storage.ExportSnapshot(ctx, ws.Project.Store)
	if err != nil {
		return err
	}
	if err := storage.WriteSnapshot(args[1], snap, ws.Project.BackupsDir()); err != nil {
		return err
	}
	fmt.Println("Wrote", args[1])
	return nil
}

func cmdImport(ctx context.Context, args []string) error {
	ws, _, err := openProject(ctx, args[0], true)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()
	snap, err := storage.ReadSnapshotOrBackup(args[1], ws.Project.BackupsDir())
	if err != nil {
		return err
	}
	doc, err := storage.ImportSnapshot(ctx, ws.Project.Store, snap)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d photos.\n", len(doc.Photos))
	return nil
}

func cmdWatch(ctx context.Context, args []string) error {
	ws, _, err := openProject(ctx, args[0], false)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()
	l := applog.WithComponent("watch")
	out := filepath.Join(ws.Project.ExportsDir(), "preview.png")
	render := func() {
		doc, err := ws.Document(ctx)
		if err != nil {
			l.Error("reload failed", slog.Any("err", err))
			return
		}
		target.Document = func() *domain.Document { return doc }
		opt := export.PNGOptions{Width: 1800, ShowGuides: true, ShowLabels: true, T: ws.T}
		switch err := ws.Exporter.ExportPNG(ctx, doc, out, opt); {
		case errors.Is(err, export.ErrNoPhotos):
			l.Info("nothing to render yet")
		case err != nil:
			l.Error("render failed", slog.Any("err", err))
		default:
			fmt.Println(time.Now().Format(time.TimeOnly), "rendered", out)
		}
	}
	render()
	fmt.Println("Watching", ws.Root(), "(Ctrl+C to stop)")
	return watch.Watch(ctx, ws.Root(), func(string) { render() }, watch.Options{})
}

func cmdServe(ctx context.Context, _ []string) error {
	cfg, token, err := config.Load()
	if err != nil {
		return err
	}
	applog.Init(applog.FromConfig(cfg.Logging))
	blobs, err := blobstore.Open(ctx, cfg.Server)
	if err != nil {
		return err
	}
	srv := photoserver.New(blobs, photoserver.Options{
		Token:     token,
		Retention: time.Duration(cfg.Server.RetentionDays) * 24 * time.Hour,
	})
	fmt.Println("Serving photos on", cfg.Server.Addr)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
