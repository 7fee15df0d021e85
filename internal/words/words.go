// Package words holds the static word list and prompt pool used by both
// games. Everything here is immutable after Load, so the games share a
// single *Source without synchronization.
package words

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"
)

const anagramLength = 6

// Source bundles the dictionary and the precomputed prompt pool.
type Source struct {
	words     []string // sorted ascending, lowercase ASCII
	sixLetter []string
	prompts   *Prompts
}

// Load reads the word list and prompts file from disk.
func Load(wordsPath, promptsPath string) (*Source, error) {
	wf, err := os.Open(wordsPath)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer wf.Close()

	list, err := readWordList(wf)
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}

	pf, err := os.Open(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}
	defer pf.Close()

	prompts, err := ParsePrompts(pf)
	if err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}

	return New(list, prompts)
}

// New builds a Source from an already-loaded word list. The list is sorted
// if it isn't already. Used directly by tests.
func New(list []string, prompts *Prompts) (*Source, error) {
	if !sort.StringsAreSorted(list) {
		sort.Strings(list)
	}

	s := &Source{words: list, prompts: prompts}
	for _, word := range list {
		if len(word) == anagramLength {
			s.sixLetter = append(s.sixLetter, word)
		}
	}
	if len(s.sixLetter) == 0 {
		return nil, fmt.Errorf("word list has no %d-letter words", anagramLength)
	}
	return s, nil
}

func readWordList(r io.Reader) ([]string, error) {
	var list []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			list = append(list, word)
		}
	}
	return list, scanner.Err()
}

// IsValid reports exact membership in the word list.
func (s *Source) IsValid(word string) bool {
	i := sort.SearchStrings(s.words, word)
	return i < len(s.words) && s.words[i] == word
}

// WordCount returns the number of dictionary words.
func (s *Source) WordCount() int {
	return len(s.words)
}

// RandomPrompt picks a prompt whose words-per-prompt count meets minWPP.
func (s *Source) RandomPrompt(minWPP int) string {
	return s.prompts.Random(minWPP)
}

// RandomAnagram picks a random six-letter word and a shuffled presentation
// of its letters.
func (s *Source) RandomAnagram() (original, shuffled string) {
	original = s.sixLetter[rand.Intn(len(s.sixLetter))]

	letters := []byte(original)
	rand.Shuffle(len(letters), func(i, j int) {
		letters[i], letters[j] = letters[j], letters[i]
	})
	return original, string(letters)
}
