package game

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wordrush/wordrush/internal/protocol"
)

// anagramPoints scores a word: 50 for two letters, doubling per letter.
func anagramPoints(word string) int {
	return 50 << (len(word) - 2)
}

// summary assembles the Word Bomb post-game stats. Per-player entries
// exist only for players who landed at least one word; every list comes
// out pre-sorted for display.
func (g *WordBomb) summary(winner uuid.UUID) protocol.WordBombSummary {
	sum := protocol.WordBombSummary{
		Winner:         winner,
		MinsElapsed:    time.Since(g.startedAt).Minutes(),
		FastestGuesses: []protocol.GuessStat{},
		LongestWords:   []protocol.WordStat{},
		AvgWPMs:        []protocol.NumberStat{},
		AvgWordLengths: []protocol.NumberStat{},
	}

	for _, p := range g.players {
		sum.WordsUsed += len(p.usedWords)
		if len(p.usedWords) == 0 {
			continue
		}

		fastest := p.usedWords[0]
		longest := p.usedWords[0].word
		var wpmSum, lenSum float64
		timed := 0
		for _, u := range p.usedWords {
			if u.at < fastest.at {
				fastest = u
			}
			if len(u.word) > len(longest) {
				longest = u.word
			}
			// A zero-duration guess has no measurable speed; it counts
			// toward everything but the WPM average.
			if mins := u.at.Minutes(); mins > 0 {
				wpmSum += (float64(len(u.word)) / 5) / mins
				timed++
			}
			lenSum += float64(len(u.word))
		}
		n := float64(len(p.usedWords))
		avgWPM := 0.0
		if timed > 0 {
			avgWPM = wpmSum / float64(timed)
		}

		sum.FastestGuesses = append(sum.FastestGuesses, protocol.GuessStat{
			UUID:    p.id,
			Seconds: fastest.at.Seconds(),
			Word:    fastest.word,
		})
		sum.LongestWords = append(sum.LongestWords, protocol.WordStat{UUID: p.id, Word: longest})
		sum.AvgWPMs = append(sum.AvgWPMs, protocol.NumberStat{UUID: p.id, Value: avgWPM})
		sum.AvgWordLengths = append(sum.AvgWordLengths, protocol.NumberStat{UUID: p.id, Value: lenSum / n})
	}

	sort.Slice(sum.FastestGuesses, func(i, j int) bool {
		return sum.FastestGuesses[i].Seconds < sum.FastestGuesses[j].Seconds
	})
	sort.Slice(sum.LongestWords, func(i, j int) bool {
		return len(sum.LongestWords[i].Word) > len(sum.LongestWords[j].Word)
	})
	sort.Slice(sum.AvgWPMs, func(i, j int) bool {
		return sum.AvgWPMs[i].Value > sum.AvgWPMs[j].Value
	})
	sort.Slice(sum.AvgWordLengths, func(i, j int) bool {
		return sum.AvgWordLengths[i].Value > sum.AvgWordLengths[j].Value
	})
	return sum
}

// summary assembles the Anagrams leaderboard, best score first, with each
// player's words alongside in the same order.
func (g *Anagrams) summary() protocol.AnagramsSummary {
	sum := protocol.AnagramsSummary{
		OriginalWord: g.original,
		Leaderboard:  []protocol.ScoreStat{},
		UsedWords:    []protocol.WordsStat{},
	}

	order := append([]*anagramsPlayer(nil), g.players...)
	sort.Slice(order, func(i, j int) bool {
		pi, pj := playerPoints(order[i]), playerPoints(order[j])
		if pi != pj {
			return pi > pj
		}
		return order[i].id.String() < order[j].id.String()
	})

	for _, p := range order {
		words := append([]string(nil), p.usedWords...)
		sort.Strings(words)
		sum.Leaderboard = append(sum.Leaderboard, protocol.ScoreStat{UUID: p.id, Points: playerPoints(p)})
		sum.UsedWords = append(sum.UsedWords, protocol.WordsStat{UUID: p.id, Words: words})
	}
	return sum
}

func playerPoints(p *anagramsPlayer) int {
	points := 0
	for _, w := range p.usedWords {
		points += anagramPoints(w)
	}
	return points
}

// results flattens the summary into per-account outcomes for the stats
// sink.
func (g *WordBomb) results(winner uuid.UUID, sum protocol.WordBombSummary) []PlayerResult {
	res := make([]PlayerResult, len(g.players))
	for i, p := range g.players {
		res[i] = PlayerResult{ID: p.id, Won: p.id == winner, WordsGuessed: len(p.usedWords)}
		for _, stat := range sum.AvgWPMs {
			if stat.UUID == p.id {
				res[i].AvgWPM = stat.Value
			}
		}
	}
	return res
}

// results marks everyone who tied the top score as a winner.
func (g *Anagrams) results(sum protocol.AnagramsSummary) []PlayerResult {
	top := 0
	if len(sum.Leaderboard) > 0 {
		top = sum.Leaderboard[0].Points
	}
	res := make([]PlayerResult, len(g.players))
	for i, p := range g.players {
		res[i] = PlayerResult{
			ID:           p.id,
			Won:          top > 0 && playerPoints(p) == top,
			WordsGuessed: len(p.usedWords),
		}
	}
	return res
}
