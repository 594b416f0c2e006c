package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-tex2pdf/internal/config"
	"github.com/alnah/go-tex2pdf/internal/workspace"
)

// versionTimeout bounds `<engine> --version`.
const versionTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Engine   engineInfo `json:"engine"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// engineInfo holds TeX engine detection results.
type engineInfo struct {
	Name    string `json:"name"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	WorkDir         string `json:"work_dir"`
	WorkDirWritable bool   `json:"work_dir_writable"`
	Listen          string `json:"listen"`
	ListenAvailable bool   `json:"listen_available"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags or config.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	f, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	cfg, err := resolveConfig(&f.common, env)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}

	result := runDoctor(ctx, cfg, env)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, cfg *config.Config, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	checkEngine(ctx, result, cfg.Compile.Engine, env)
	checkEnvironment(result, env.Getenv)
	checkSystem(result, cfg)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkEngine locates the engine and reads its version banner.
func checkEngine(ctx context.Context, result *doctorResult, engine string, env *Environment) {
	result.Engine.Name = engine

	path, err := env.LookPath(engine)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s not found. Install TeX Live or set TEX2PDF_ENGINE", engine))
		return
	}
	result.Engine.Found = true
	result.Engine.Path = path

	vctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	version, err := env.EngineVersion(vctx, path)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get %s version: %v", engine, err))
		return
	}
	result.Engine.Version = version
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("TEX2PDF_CONTAINER") == "1" {
		return true, "TEX2PDF_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the workspace parent and the listen address.
func checkSystem(result *doctorResult, cfg *config.Config) {
	dir := cfg.Compile.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	result.System.WorkDir = dir

	ws, err := workspace.Acquire(dir, "tex2pdf-doctor-")
	if err == nil {
		err = ws.WriteFile("probe.tex", []byte("probe"))
		_ = ws.Release()
	}
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Work directory not writable: %s", dir))
	} else {
		result.System.WorkDirWritable = true
	}

	result.System.Listen = cfg.Server.Listen
	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Listen address %s unavailable: %v", cfg.Server.Listen, err))
		return
	}
	_ = ln.Close()
	result.System.ListenAvailable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "tex2pdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Engine")
	if r.Engine.Found {
		fmt.Fprintf(w, "  [OK] Found %s at %s\n", r.Engine.Name, r.Engine.Path)
		if r.Engine.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Engine.Version)
		}
	} else {
		fmt.Fprintf(w, "  [ERROR] %s not found\n", r.Engine.Name)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.WorkDirWritable {
		fmt.Fprintf(w, "  [OK] Work directory: %s writable\n", r.System.WorkDir)
	} else {
		fmt.Fprintf(w, "  [ERROR] Work directory: %s not writable\n", r.System.WorkDir)
	}
	if r.System.ListenAvailable {
		fmt.Fprintf(w, "  [OK] Listen address: %s available\n", r.System.Listen)
	} else {
		fmt.Fprintf(w, "  [WARN] Listen address: %s in use\n", r.System.Listen)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to compile")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
