package words

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// Prompts is the flattened prompt pool. Prompts are grouped by how many
// dictionary words contain them (words-per-prompt); groups appear in the
// file sorted ascending by that count, so picking from the suffix that
// starts at a group raises the floor on how easy the prompt is.
type Prompts struct {
	prompts []string
	groups  []promptGroup // ascending by wpp
}

type promptGroup struct {
	wpp   int
	start int // index of the group's first prompt in prompts
}

// ParsePrompts reads lines of the form "<wpp>:<prompt>[,<prompt>]*".
func ParsePrompts(r io.Reader) (*Prompts, error) {
	p := &Prompts{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		count, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed prompts line %q", line)
		}
		wpp, err := strconv.Atoi(count)
		if err != nil {
			return nil, fmt.Errorf("malformed wpp in line %q: %w", line, err)
		}
		if n := len(p.groups); n > 0 && p.groups[n-1].wpp >= wpp {
			return nil, fmt.Errorf("prompts file not sorted ascending at wpp %d", wpp)
		}

		group := strings.Split(rest, ",")
		for _, prompt := range group {
			if prompt == "" {
				return nil, fmt.Errorf("empty prompt in line %q", line)
			}
		}
		p.groups = append(p.groups, promptGroup{wpp: wpp, start: len(p.prompts)})
		p.prompts = append(p.prompts, group...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(p.prompts) == 0 {
		return nil, fmt.Errorf("prompts file contained no prompts")
	}
	return p, nil
}

// Random picks uniformly from the suffix of the pool beginning at the first
// group whose words-per-prompt count is at least minWPP. If no group
// qualifies, the last (easiest) group is used.
func (p *Prompts) Random(minWPP int) string {
	i := sort.Search(len(p.groups), func(i int) bool {
		return p.groups[i].wpp >= minWPP
	})
	if i == len(p.groups) {
		i = len(p.groups) - 1
	}

	start := p.groups[i].start
	return p.prompts[start+rand.Intn(len(p.prompts)-start)]
}

// Len returns the total number of prompts in the pool.
func (p *Prompts) Len() int {
	return len(p.prompts)
}
