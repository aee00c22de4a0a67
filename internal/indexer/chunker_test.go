package indexer

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{
			name:    "empty text is one chunk",
			text:    "",
			size:    10,
			overlap: 2,
			want:    []string{""},
		},
		{
			name:    "short text is returned unchanged",
			text:    "hello world. goodbye world.",
			size:    1000,
			overlap: 200,
			want:    []string{"hello world. goodbye world."},
		},
		{
			name:    "text exactly chunk size",
			text:    "abcde",
			size:    5,
			overlap: 1,
			want:    []string{"abcde"},
		},
		{
			name:    "splits after last terminator with overlap",
			text:    "aaaa. bbbb. cccc. dddd.",
			size:    12,
			overlap: 3,
			want:    []string{"aaaa. bbbb.", "bb. cccc.", "cc. dddd."},
		},
		{
			name:    "hard cut without terminators",
			text:    "abcdefghij",
			size:    4,
			overlap: 1,
			want:    []string{"abcd", "defg", "ghij"},
		},
		{
			name:    "full-width terminators counted in runes",
			text:    "你好。世界。再见。",
			size:    3,
			overlap: 0,
			want:    []string{"你好。", "世界。", "再见。"},
		},
		{
			name:    "other terminators",
			text:    "Why? Because! Done.",
			size:    10,
			overlap: 0,
			want:    []string{"Why?", " Because!", " Done."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitText(tt.text, tt.size, tt.overlap)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitText_DefaultsForInvalidParams(t *testing.T) {
	text := strings.Repeat("x", DefaultChunkSize)
	got := SplitText(text, 0, -5)
	if len(got) != 1 || got[0] != text {
		t.Errorf("SplitText() with size 0 should fall back to DefaultChunkSize, got %d chunks", len(got))
	}
}

func TestSplitText_SingleChunkWhenShort(t *testing.T) {
	inputs := []string{"a", "hello world.", strings.Repeat("z", 999), "ünïcödé text."}
	for _, in := range inputs {
		got := SplitText(in, DefaultChunkSize, DefaultChunkOverlap)
		if len(got) != 1 || got[0] != in {
			t.Errorf("SplitText(%q) = %q, want single unchanged chunk", in, got)
		}
	}
}

// assertCoverage checks that every chunk is the text found at its window position, that each
// window starts no later than the previous one ended, and that the last chunk ends the text.
func assertCoverage(t *testing.T, text string, chunks []string, overlap int) {
	t.Helper()
	runes := []rune(text)
	start := 0

	for i, chunk := range chunks {
		cr := []rune(chunk)
		end := start + len(cr)
		if end > len(runes) || string(runes[start:end]) != chunk {
			t.Fatalf("chunk %d %q is not the text at offset %d", i, chunk, start)
		}
		if i == len(chunks)-1 {
			if end != len(runes) {
				t.Fatalf("chunks cover %d of %d runes", end, len(runes))
			}
			return
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
}

func TestSplitText_Coverage(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog. "
	texts := map[string]string{
		"sentences":       strings.Repeat(sentence, 60),
		"no terminators":  strings.Repeat("lorem ipsum dolor sit amet ", 120),
		"dense periods":   strings.Repeat("a.", 700),
		"mixed":           strings.Repeat("第一句。Second one! third? ", 80),
		"terminator tail": strings.Repeat("x", 1500) + ".",
	}
	params := []struct{ size, overlap int }{
		{1000, 200},
		{100, 20},
		{50, 49},
		{10, 0},
		{7, 6},
	}

	for name, text := range texts {
		for _, p := range params {
			chunks := SplitText(text, p.size, p.overlap)
			if len(chunks) == 0 {
				t.Fatalf("%s size=%d overlap=%d: no chunks", name, p.size, p.overlap)
			}
			for i, c := range chunks {
				if utf8.RuneCountInString(c) > p.size {
					t.Errorf("%s size=%d overlap=%d: chunk %d has %d runes", name, p.size, p.overlap, i, utf8.RuneCountInString(c))
				}
			}
			assertCoverage(t, text, chunks, p.overlap)
		}
	}
}

func TestSplitText_LargeOverlapStillProgresses(t *testing.T) {
	// Terminators every two runes with an overlap larger than the gap between them.
	text := strings.Repeat("a.", 200)
	chunks := SplitText(text, 10, 9)
	if len(chunks) > len([]rune(text)) {
		t.Fatalf("SplitText() produced %d chunks for %d runes", len(chunks), len([]rune(text)))
	}
	assertCoverage(t, text, chunks, 9)
}

func TestSplitText_Deterministic(t *testing.T) {
	text := strings.Repeat("Deterministic output matters. Every time! ", 100)
	first := SplitText(text, 120, 30)
	second := SplitText(text, 120, 30)
	if !reflect.DeepEqual(first, second) {
		t.Error("SplitText() returned different chunks for identical input")
	}
}
