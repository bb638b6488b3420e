package converter

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Input shards are named <stem>_<i>.root. The user passes the first shard
// (e.g. run4_100GeV_0.root) and the number of consecutive shards.

func stripExtensions(filename string) string {
	dir, base := filepath.Split(filename)
	for i := 0; i < 2; i++ {
		if dot := strings.LastIndex(base, "."); dot > 0 {
			base = base[:dot]
		}
	}
	return dir + base
}

// OutputFilename derives the output path from the first shard name:
// run4_100GeV_0.root -> run4_100GeV_0<suffix>.
func OutputFilename(first string, suffix string) string {
	return stripExtensions(first) + suffix
}

// ShardFilenames lists the n consecutive shards starting at first.
func ShardFilenames(first string, n int) []string {
	stem := stripExtensions(first)
	if us := strings.LastIndex(stem, "_"); us >= 0 {
		stem = stem[:us]
	}
	files := make([]string, n)
	for i := range files {
		files[i] = fmt.Sprintf("%s_%d.root", stem, i)
	}
	return files
}

// ExportFilename names the plot of one branch of a converted file:
// run4_100GeV_0_Out.root, EM_Row -> run4_100GeV_EM_Row.pdf.
func ExportFilename(converted string, branch string, ext string) string {
	stem := converted
	for i := 0; i < 2; i++ {
		if us := strings.LastIndex(stem, "_"); us >= 0 {
			stem = stem[:us]
		}
	}
	if ext == "" {
		ext = "pdf"
	}
	return fmt.Sprintf("%s_%s.%s", stem, branch, ext)
}
