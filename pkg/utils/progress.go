package utils

import (
	"fmt"
	"strings"
)

// PrintProgress redraws a single-line progress bar on stdout.
func PrintProgress(section string, current int, total int, description string) {
	const nbBlocks = 40

	if total <= 0 {
		total = 1
	}
	if current < 0 {
		current = 0
	}
	if current > total {
		current = total
	}

	blocks := current * nbBlocks / total
	percentage := current * 100 / total

	fmt.Printf("\r%s [%s%s] %3d%% (%d/%d) %s",
		section,
		strings.Repeat("=", blocks),
		strings.Repeat(" ", nbBlocks-blocks),
		percentage,
		current,
		total,
		description)
	if current == total {
		fmt.Println()
	}
}
