package results

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Point is one visibility read back from a result file.
type Point struct {
	Index int
	Value complex128
}

// File is a parsed result file.
type File struct {
	Path     string
	Metadata map[string]string
	Points   []Point
}

// Parse reads header and data lines. Malformed data lines are skipped.
func Parse(r io.Reader) (*File, error) {
	f := &File{Metadata: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			key, value, ok := strings.Cut(line[1:], ":")
			if ok {
				f.Metadata[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
			continue
		}

		if p, ok := parsePoint(line); ok {
			f.Points = append(f.Points, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan result file: %w", err)
	}
	return f, nil
}

// ParseFile opens and parses the result file at path.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

func parsePoint(line string) (Point, bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Point{}, false
	}
	index, err := strconv.Atoi(fields[0])
	if err != nil {
		return Point{}, false
	}
	re, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, false
	}
	im, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Point{}, false
	}
	return Point{Index: index, Value: complex(re, im)}, true
}
