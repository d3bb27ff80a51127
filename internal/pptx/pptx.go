// Package pptx reads and rewrites the slide text of Office Open XML
// presentations. A .pptx is a zip archive; slide text lives in
// ppt/slides/slideN.xml as <a:t> runs (drawingml namespace).
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Slide holds the text runs of one slide in document order.
type Slide struct {
	Number int
	Texts  []string
}

var (
	slidePath = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	textRun   = regexp.MustCompile(`(<a:t(?:\s[^>]*)?>)([^<]*)(</a:t>)`)
)

// Extract returns the slides of a deck with their text runs. Slides are
// ordered by slide number, runs by position in the slide XML. Entities
// in run text are decoded.
func Extract(data []byte) ([]Slide, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pptx: not a zip: %w", err)
	}

	var slides []Slide
	for _, f := range zr.File {
		m := slidePath.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		content, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		slide := Slide{Number: num}
		for _, run := range textRun.FindAllSubmatch(content, -1) {
			slide.Texts = append(slide.Texts, unescapeXML(string(run[2])))
		}
		slides = append(slides, slide)
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("no slides found in presentation")
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].Number < slides[j].Number })
	return slides, nil
}

// ExtractFile is Extract for a deck on disk.
func ExtractFile(path string) ([]Slide, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pptx: %w", err)
	}
	return Extract(data)
}

// Rebuild writes a copy of the deck at sourcePath to w, substituting
// text runs per slide. replacements maps slide number to a slice
// parallel to the extracted runs; empty entries keep the source text,
// and runs beyond the slice length are left untouched.
func Rebuild(sourcePath string, replacements map[int][]string, w io.Writer) error {
	zr, err := zip.OpenReader(sourcePath)
	if err != nil {
		return fmt.Errorf("open pptx: %w", err)
	}
	defer zr.Close()

	zw := zip.NewWriter(w)
	for _, f := range zr.File {
		content, err := readZipFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}

		if m := slidePath.FindStringSubmatch(f.Name); m != nil {
			if num, err := strconv.Atoi(m[1]); err == nil {
				if texts, ok := replacements[num]; ok {
					content = replaceRuns(content, texts)
				}
			}
		}

		out, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("create %s: %w", f.Name, err)
		}
		if _, err := out.Write(content); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close pptx: %w", err)
	}
	return nil
}

// RebuildFile is Rebuild writing to a new file at outPath.
func RebuildFile(sourcePath string, replacements map[int][]string, outPath string) (int64, error) {
	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	if err := Rebuild(sourcePath, replacements, out); err != nil {
		out.Close()
		os.Remove(outPath)
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close output: %w", err)
	}
	info, err := os.Stat(outPath)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func replaceRuns(content []byte, texts []string) []byte {
	idx := 0
	return textRun.ReplaceAllFunc(content, func(run []byte) []byte {
		i := idx
		idx++
		if i >= len(texts) || texts[i] == "" {
			return run
		}
		sub := textRun.FindSubmatch(run)
		var buf bytes.Buffer
		buf.Write(sub[1])
		escapeXML(&buf, texts[i])
		buf.Write(sub[3])
		return buf.Bytes()
	})
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func escapeXML(buf *bytes.Buffer, s string) {
	// EscapeText only fails on a failing writer; bytes.Buffer never does.
	_ = xml.EscapeText(buf, []byte(s))
}

var xmlUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&#xA;", "\n",
	"&#x9;", "\t",
	"&#xD;", "\r",
	"&amp;", "&",
)

func unescapeXML(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	return xmlUnescaper.Replace(s)
}
