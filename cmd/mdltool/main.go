// mdltool is a CLI utility for inspecting and converting Aurora ascii MDL
// models.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/auroramdl/internal/batch"
	"github.com/Faultbox/auroramdl/internal/config"
	"github.com/Faultbox/auroramdl/internal/logger"
	"github.com/Faultbox/auroramdl/pkg/mdl"
)

func main() {
	os.Exit(run())
}

func run() int {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		File:    logger.DefaultFileConfig(cfg.Logging.LogFile),
		Console: os.Stderr,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command := args[0]
	args = args[1:]

	code := 0
	switch command {
	case "info":
		code = cmdInfo(ctx, cfg, args)
	case "check":
		code = cmdCheck(ctx, cfg, args)
	case "convert":
		code = cmdConvert(ctx, cfg, args)
	case "walkmesh", "wok":
		code = cmdWalkmesh(ctx, cfg, args)
	case "aabb":
		code = cmdAABB(ctx, cfg, args)
	case "mtr":
		code = cmdMtr(ctx, cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		code = 1
	}
	return code
}

func printUsage() {
	fmt.Println(`mdltool - Aurora ascii MDL utility

Usage:
  mdltool [global options] <command> [options]

Global options:
  -config <file>        Config file (default ./mdltool.yaml)
  -debug                Enable debug logging
  -workers <n>          Batch worker count
  -mtr <dir,dir>        MTR search directories
  -log-file <file>      Write logs to a rotating file
  -decompiler <cmd>     Binary model decompiler, {in} and {out} substituted

Commands:
  info <file.mdl>                   Show model summary
  check <file|dir>...               Parse and validate models
  convert -o <dir> <file|dir>...    Re-export models into a directory
  walkmesh <file.mdl>               Print the companion walkmesh
  aabb <file.mdl> [node]            Build and print AABB trees
  mtr <file.mdl> [output_dir]       Write MTR files for mesh materials

Examples:
  mdltool info c_orc.mdl
  mdltool -workers 8 check ./models
  mdltool convert -o ./out -manifest report.json ./models
  mdltool aabb tile01.mdl tile01_wg`)
}

// loadOne loads a single model, printing the error on failure.
func loadOne(ctx context.Context, cfg *config.Config, path string) (*batch.Job, bool) {
	bc, err := batch.NewConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, false
	}
	job, err := batch.Load(ctx, bc, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, false
	}
	return job, true
}

func cmdInfo(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool info <file.mdl>")
		return 1
	}

	job, ok := loadOne(ctx, cfg, args[0])
	if !ok {
		return 1
	}
	m := job.Model

	fmt.Printf("Model:          %s\n", m.Name)
	fmt.Printf("Supermodel:     %s\n", nameOr(m.Supermodel, "null"))
	fmt.Printf("Classification: %s\n", m.Classification)
	fmt.Printf("Anim scale:     %.3f\n", m.AnimationScale)
	fmt.Printf("Nodes:          %d\n", len(m.Nodes))

	kindCount := make(map[string]int)
	verts, faces := 0, 0
	for _, n := range m.Nodes {
		kindCount[n.Kind.String()]++
		if n.Mesh != nil {
			verts += len(n.Mesh.Verts)
			faces += len(n.Mesh.Faces)
		}
	}
	kinds := make([]string, 0, len(kindCount))
	for k := range kindCount {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-12s %d\n", k, kindCount[k])
	}
	fmt.Printf("Geometry:       %d verts, %d faces\n", verts, faces)

	if len(m.PwkNodes)+len(m.DwkNodes) > 0 {
		fmt.Printf("Walkmesh:       %d pwk, %d dwk nodes\n", len(m.PwkNodes), len(m.DwkNodes))
	}

	if len(m.Animations) > 0 {
		fmt.Println()
		fmt.Println("Animations:")
		for _, a := range m.Animations {
			fmt.Printf("  %-20s length %.3f  transition %.3f  root %s  nodes %d  events %d\n",
				a.Name, a.Length, a.TransTime, nameOr(a.Root, "-"), len(a.Nodes), len(a.Events))
		}
	}

	printWarnings(job.Session)
	return 0
}

func cmdCheck(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	manifest := fs.String("manifest", "", "Write a JSON report to this file")
	strict := fs.Bool("strict", false, "Treat warnings as failures")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool check [-manifest file] [-strict] <file|dir>...")
		return 1
	}
	return runBatch(ctx, cfg, fs.Args(), nil, *manifest, *strict)
}

func cmdConvert(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	out := fs.String("o", cfg.Batch.OutputDir, "Output directory")
	manifest := fs.String("manifest", "", "Write a JSON report to this file")
	fs.Parse(args)

	if fs.NArg() < 1 || *out == "" {
		fmt.Fprintln(os.Stderr, "Usage: mdltool convert -o <dir> [-manifest file] <file|dir>...")
		return 1
	}
	return runBatch(ctx, cfg, fs.Args(), batch.Convert(*out), *manifest, false)
}

func runBatch(ctx context.Context, cfg *config.Config, args []string, handle batch.Handler, manifest string, strict bool) int {
	paths, err := batch.Collect(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "No models found")
		return 1
	}

	bc, err := batch.NewConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logger.Log.Info("batch started", zap.Int("files", len(paths)), zap.Int("workers", bc.Workers))
	results := batch.Run(ctx, bc, paths, handle)

	failed := 0
	for _, r := range results {
		switch {
		case !r.Success:
			failed++
			fmt.Printf("FAIL  %s: %s\n", r.Path, r.Error)
		case strict && len(r.Warnings) > 0:
			failed++
			fmt.Printf("WARN  %s: %d warnings\n", r.Path, len(r.Warnings))
		case r.Output != "":
			fmt.Printf("ok    %s -> %s\n", r.Path, r.Output)
		default:
			fmt.Printf("ok    %s\n", r.Path)
		}
		for _, w := range r.Warnings {
			fmt.Printf("        %s\n", w)
		}
	}

	if manifest != "" {
		if err := batch.WriteManifest(manifest, results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing manifest: %v\n", err)
			return 1
		}
	}

	fmt.Fprintf(os.Stderr, "\n%d files, %d failed\n", len(results), failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func cmdWalkmesh(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool walkmesh <file.mdl>")
		return 1
	}

	cfg.Import.Walkmesh = true
	job, ok := loadOne(ctx, cfg, args[0])
	if !ok {
		return 1
	}
	m := job.Model

	ext := mdl.CompanionWalkmesh(m.Classification)
	if ext == "" {
		fmt.Fprintf(os.Stderr, "%s models have no companion walkmesh\n", m.Classification)
		return 1
	}
	nodes := m.PwkNodes
	if ext == ".dwk" {
		nodes = m.DwkNodes
	}
	if len(nodes) == 0 {
		fmt.Fprintf(os.Stderr, "No %s file next to %s\n", ext, args[0])
		return 1
	}

	for _, line := range mdl.SerializeWalkmesh(m.Name, nodes, job.Session) {
		fmt.Println(line)
	}
	return 0
}

func cmdAABB(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("aabb", flag.ExitOnError)
	all := fs.Bool("all", false, "Build trees for every mesh node, not only aabb nodes")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool aabb [-all] <file.mdl> [node]")
		return 1
	}

	job, ok := loadOne(ctx, cfg, fs.Arg(0))
	if !ok {
		return 1
	}
	only := strings.ToLower(fs.Arg(1))

	built := 0
	for _, n := range job.Model.Nodes {
		if n.Mesh == nil {
			continue
		}
		if only != "" && !strings.EqualFold(n.Name, only) {
			continue
		}
		if only == "" && !*all && n.Kind != mdl.KindAabb {
			continue
		}

		tree, warnings := mdl.BuildAABB(mdl.AABBFaces(n.Mesh.Verts, n.Mesh.Faces))
		fmt.Printf("%s: %d faces, %d tree nodes\n", n.Name, len(n.Mesh.Faces), len(tree))
		for _, node := range tree {
			fmt.Printf("  %9.5f %9.5f %9.5f  %9.5f %9.5f %9.5f  %d\n",
				node.Min.X, node.Min.Y, node.Min.Z, node.Max.X, node.Max.Y, node.Max.Z, node.Face)
		}
		for _, w := range warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		built++
	}

	if built == 0 {
		fmt.Fprintln(os.Stderr, "No matching mesh nodes")
		return 1
	}
	return 0
}

func cmdMtr(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool mtr <file.mdl> [output_dir]")
		return 1
	}
	outputDir := "."
	if len(args) > 1 {
		outputDir = args[1]
	}

	job, ok := loadOne(ctx, cfg, args[0])
	if !ok {
		return 1
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		return 1
	}

	written := 0
	seen := make(map[string]bool)
	for _, n := range job.Model.Nodes {
		if n.Mesh == nil || !n.Mesh.Render {
			continue
		}
		mat := n.Mesh.Material
		name := mat.Name
		if name == "" {
			name = job.Model.Name + "_" + strings.ToLower(n.Name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		mtr := mat.Mtr
		if mtr == nil {
			mtr = mdl.MaterialMtr(name, mat)
		}
		path := filepath.Join(outputDir, name+".mtr")
		if err := os.WriteFile(path, mdl.Bytes(mtr.Lines()), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			continue
		}
		fmt.Printf("Wrote: %s\n", path)
		written++
	}

	fmt.Fprintf(os.Stderr, "\nWrote %d MTR files\n", written)
	return 0
}

func printWarnings(s *mdl.Session) {
	if len(s.Warnings) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("Warnings (%d):\n", len(s.Warnings))
	for _, w := range s.Warnings {
		fmt.Printf("  %s\n", w)
	}
}

func nameOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
