package version

import (
	"fmt"
	"runtime"
)

// Build metadata, set with -ldflags, for example
//
//	-X github.com/OpenCHAMI/powerctl/internal/version.Version=v1.0.0
//	-X github.com/OpenCHAMI/powerctl/internal/version.GitCommit=$(git rev-parse HEAD)
//	-X github.com/OpenCHAMI/powerctl/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)
var (
	Version   string
	GitCommit string
	GitBranch string
	GitTag    string
	GitState  string
	BuildTime string
	BuildHost string
	BuildUser string
)

// Info is the build metadata as reported by `powerctl version` and the
// daemon's /version route.
type Info struct {
	Version   string `json:"version"    yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	GitBranch string `json:"git_branch" yaml:"git_branch"`
	GitTag    string `json:"git_tag"    yaml:"git_tag"`
	GitState  string `json:"git_state"  yaml:"git_state"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	BuildHost string `json:"build_host" yaml:"build_host"`
	BuildUser string `json:"build_user" yaml:"build_user"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		GitTag:    GitTag,
		GitState:  GitState,
		BuildTime: BuildTime,
		BuildHost: BuildHost,
		BuildUser: BuildUser,
		GoVersion: runtime.Version(),
	}
}

// PrintVersionInfo outputs all versioning information for troubleshooting or version checks.
func PrintVersionInfo() {
	info := Get()
	fmt.Printf("Version: %s\n", info.Version)
	fmt.Printf("Git Commit: %s\n", info.GitCommit)
	fmt.Printf("Build Time: %s\n", info.BuildTime)
	fmt.Printf("Git Branch: %s\n", info.GitBranch)
	fmt.Printf("Git Tag: %s\n", info.GitTag)
	fmt.Printf("Git State: %s\n", info.GitState)
	fmt.Printf("Build Host: %s\n", info.BuildHost)
	fmt.Printf("Go Version: %s\n", info.GoVersion)
	fmt.Printf("Build User: %s\n", info.BuildUser)
}

func VersionInfo() string {
	info := Get()
	return fmt.Sprintf("Version: %s, Git Commit: %s, Build Time: %s, Go Version: %s",
		info.Version, info.GitCommit, info.BuildTime, info.GoVersion)
}
