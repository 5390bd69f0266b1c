/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"qrstudio/internal/config"
	"qrstudio/internal/crash"
	applog "qrstudio/internal/log"
	"qrstudio/internal/ui"
	"qrstudio/internal/version"
)

// exitFn is swapped in tests so main can be exercised without terminating the process.
var exitFn = os.Exit

func usage(w io.Writer) {
	fmt.Fprintln(w, "QR Studio — QR code designer")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  qrstudio version|-v|--version                          Show version")
	fmt.Fprintln(w, "  qrstudio render <design.json> <format> <scale> <out>   Export png|jpeg|svg|pdf at 1-4x")
	fmt.Fprintln(w, "  qrstudio options <design.json>                         Print the render options JSON")
	fmt.Fprintln(w, "  qrstudio batch <design.json> <web|print> <dir> [fmt..]  Export a preset into <dir>")
	fmt.Fprintln(w, "  qrstudio gallery list|save <design.json>|show <n>|delete <n>")
	fmt.Fprintln(w, "  qrstudio pack export <out.zip>|install <in.zip>        Share gallery designs")
	fmt.Fprintln(w, "  qrstudio theme [dark|light]                            Show or set the saved theme")
	fmt.Fprintln(w, "  qrstudio ui                                            Launch desktop UI (build with -tags fyne)")
}

func main() {
	if code := run(os.Args[1:], os.Stdout); code != 0 {
		exitFn(code)
	}
}

// cli carries what every command needs once startup is done.
type cli struct {
	cfg config.AppConfig
	out io.Writer
	l   *slog.Logger
}

func run(args []string, out io.Writer) int {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}
	dataDir, _ := cfg.DataDir()
	defer crash.Recover(dataDir)

	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage(out)
		return 0
	}
	c := &cli{cfg: cfg, out: out, l: l}
	var err error
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(out, "QR Studio")
		fmt.Fprintln(out, version.String())
		return 0
	case "render":
		if len(args) < 5 {
			fmt.Fprintln(out, "render requires <design.json> <format> <scale> <out>")
			usage(out)
			return 2
		}
		err = c.render(args[1], args[2], args[3], args[4])
	case "options":
		if len(args) < 2 {
			fmt.Fprintln(out, "options requires <design.json>")
			usage(out)
			return 2
		}
		err = c.options(args[1])
	case "batch":
		if len(args) < 4 {
			fmt.Fprintln(out, "batch requires <design.json> <web|print> <dir>")
			usage(out)
			return 2
		}
		err = c.batch(args[1], args[2], args[3], args[4:])
	case "gallery":
		if len(args) < 2 {
			fmt.Fprintln(out, "gallery requires list|save|show|delete")
			usage(out)
			return 2
		}
		err = c.gallery(args[1], args[2:])
	case "pack":
		if len(args) < 3 {
			fmt.Fprintln(out, "pack requires export|install and a zip path")
			usage(out)
			return 2
		}
		err = c.pack(args[1], args[2])
	case "theme":
		var v string
		if len(args) >= 2 {
			v = args[1]
		}
		err = c.theme(v)
	case "ui":
		err = ui.Run(cfg)
	default:
		usage(out)
		return 2
	}
	if err != nil {
		l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		fmt.Fprintln(out, "Error:", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}
