package fuzztests

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 256 << 10
)

var inlineSeeds = []string{
	"",
	"main: {op: op_null}",
	"main: {op: op_isset, children: [{op: op_null}]}",
	"globals: [{name: x, type: \"?int\", uninited: true}]\nmain: {op: op_isset, children: [{op: op_var, var: x}]}",
	"functions: [{name: f, params: [{name: a, ref: true, type: \"int[]\"}], body: {op: op_seq}}]",
	"main: {op: op_func_param, children: [{op: op_int_const}, {op: op_int_const}]}",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
	addFileSeeds(f, filepath.Join("..", "dump", "testdata", "*.yaml"))
	addArchiveSeeds(f, filepath.Join("..", "validate", "testdata", "*.txtar"))
}

func addFileSeeds(f *testing.F, pattern string) {
	paths, _ := filepath.Glob(pattern)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil || len(data) > maxSeedBytes {
			continue
		}
		f.Add(data)
	}
}

// addArchiveSeeds adds the dump.yaml member of every txtar fixture.
func addArchiveSeeds(f *testing.F, pattern string) {
	paths, _ := filepath.Glob(pattern)
	for _, p := range paths {
		ar, err := txtar.ParseFile(p)
		if err != nil {
			continue
		}
		for _, file := range ar.Files {
			if file.Name == "dump.yaml" && len(file.Data) <= maxSeedBytes {
				f.Add(file.Data)
			}
		}
	}
}
