package metric

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/russross/blackfriday/v2"
)

// Flesch reading ease coefficients.
const (
	fleschBase     = 206.835
	fleschSentence = 1.015
	fleschSyllable = 84.6
)

var sentenceSplit = regexp.MustCompile(`[.!?]+|\n+`)

// MarkdownToText renders Markdown to plain prose. Fenced code blocks and raw
// HTML are dropped; every block ends on its own line.
func MarkdownToText(md []byte) string {
	root := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions)).Parse(md)

	var sb strings.Builder
	root.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		switch n.Type {
		case blackfriday.CodeBlock, blackfriday.HTMLBlock, blackfriday.HTMLSpan:
			return blackfriday.SkipChildren
		case blackfriday.Text, blackfriday.Code:
			sb.WriteString(strings.ReplaceAll(string(n.Literal), "\n", " "))
		case blackfriday.Softbreak:
			sb.WriteByte(' ')
		case blackfriday.Hardbreak:
			sb.WriteByte('\n')
		case blackfriday.Paragraph, blackfriday.Heading, blackfriday.Item, blackfriday.TableCell:
			if !entering {
				sb.WriteByte('\n')
			}
		}
		return blackfriday.GoToNext
	})
	return sb.String()
}

// FleschReadingEase scores text readability; higher is easier. Text without
// words scores 0.
func FleschReadingEase(text string) float64 {
	words, syllables := 0, 0
	for _, w := range strings.FieldsFunc(text, isWordBreak) {
		if n := countSyllables(w); n > 0 {
			words++
			syllables += n
		}
	}
	if words == 0 {
		return 0
	}

	sentences := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.IndexFunc(s, unicode.IsLetter) >= 0 {
			sentences++
		}
	}
	sentences = max(sentences, 1)

	return fleschBase -
		fleschSentence*float64(words)/float64(sentences) -
		fleschSyllable*float64(syllables)/float64(words)
}

func isWordBreak(r rune) bool {
	return !unicode.IsLetter(r) && r != '\''
}

// countSyllables approximates English syllables by counting vowel groups.
// Words without letters have no syllables.
func countSyllables(word string) int {
	var letters []rune
	for _, r := range strings.ToLower(word) {
		if unicode.IsLetter(r) {
			letters = append(letters, r)
		}
	}
	if len(letters) == 0 {
		return 0
	}
	if len(letters) <= 3 {
		return 1
	}

	count := 0
	prevVowel := false
	for _, r := range letters {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	// Silent trailing "e", except for "-le" endings like "table"
	n := len(letters)
	if letters[n-1] == 'e' && !(letters[n-2] == 'l' && !isVowel(letters[n-3])) && count > 1 {
		count--
	}
	return max(count, 1)
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}
