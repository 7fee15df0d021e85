// cmd/promptgen/main.go
//
// Precomputes the prompts file consumed by the game server: every 2- and
// 3-letter substring of the word list, grouped by how many words contain
// it. Run whenever the word list changes.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

func main() {
	wordsPath := flag.String("words", "assets/words.txt", "path to the word list")
	outPath := flag.String("out", "assets/prompts.txt", "path to write the prompts file")
	minWPP := flag.Int("min-wpp", 100, "drop prompts contained in fewer words than this")
	flag.Parse()

	logger := logrus.New()

	list, err := readWords(*wordsPath)
	if err != nil {
		logger.Fatalf("reading word list: %v", err)
	}
	logger.Infof("read %d words", len(list))

	counts := countSubstrings(list)

	// Invert into wpp → prompts, keeping only useful prompts.
	groups := make(map[int][]string)
	for prompt, n := range counts {
		if n >= *minWPP {
			groups[n] = append(groups[n], prompt)
		}
	}

	wpps := make([]int, 0, len(groups))
	for wpp := range groups {
		wpps = append(wpps, wpp)
	}
	sort.Ints(wpps)

	f, err := os.Create(*outPath)
	if err != nil {
		logger.Fatalf("creating output: %v", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	total := 0
	for _, wpp := range wpps {
		prompts := groups[wpp]
		sort.Strings(prompts)
		total += len(prompts)
		fmt.Fprintf(w, "%d:%s\n", wpp, strings.Join(prompts, ","))
	}
	if err := w.Flush(); err != nil {
		logger.Fatalf("writing output: %v", err)
	}
	logger.Infof("wrote %d prompts in %d groups to %s", total, len(wpps), *outPath)
}

func readWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var list []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			list = append(list, word)
		}
	}
	return list, scanner.Err()
}

// countSubstrings tallies, for every 2- and 3-letter substring, the number
// of distinct words containing it.
func countSubstrings(list []string) map[string]int {
	counts := make(map[string]int)
	seen := make(map[string]struct{})

	for _, word := range list {
		clear(seen)
		for _, n := range []int{2, 3} {
			for i := 0; i+n <= len(word); i++ {
				sub := word[i : i+n]
				if _, dup := seen[sub]; dup {
					continue
				}
				seen[sub] = struct{}{}
				counts[sub]++
			}
		}
	}
	return counts
}
