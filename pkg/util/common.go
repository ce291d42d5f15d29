// Package util holds the small helpers shared by the kstats binaries.
package util

import "fmt"

// na substitutes "N/A" for values the build did not stamp.
func na(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// PrintBuildInfo prints the ldflags-stamped version banner; kstatsd and
// kstats-gateway call it before parsing flags.
func PrintBuildInfo(buildVersion, buildDate, buildCommit string) {
	fmt.Printf("Build version: %s\n", na(buildVersion))
	fmt.Printf("Build date: %s\n", na(buildDate))
	fmt.Printf("Build commit: %s\n", na(buildCommit))
}
