// Package corresfile reads and writes correspondence sets as text.
//
// Each line holds a source and a target point index separated by
// whitespace or a comma. Blank lines and text after '#' are ignored.
package corresfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/seqsense/pcreg/internal/strutil"
	"github.com/seqsense/pcreg/registration"
)

// ErrSyntax is returned when a line can not be parsed as a correspondence.
var ErrSyntax = errors.New("invalid correspondence")

const (
	delimiters = " \t,"
	spaces     = " \t\r"
)

// Read parses correspondences from r.
func Read(r io.Reader) (registration.CorrespondenceSet, error) {
	corres := registration.CorrespondenceSet{}
	s := bufio.NewScanner(r)
	var line int
	for s.Scan() {
		line++
		text := s.Text()
		for i := 0; i < len(text); i++ {
			if text[i] == '#' {
				text = text[:i]
				break
			}
		}
		text = strutil.StripString(text, spaces)
		if text == "" {
			continue
		}
		tokens := strutil.SplitString(text, delimiters, true)
		if len(tokens) != 2 {
			return nil, errors.Wrapf(ErrSyntax, "line %d: expected 2 indices, got %d", line, len(tokens))
		}
		var c registration.Correspondence
		for k, tok := range tokens {
			v, err := strconv.Atoi(strutil.StripString(tok, spaces))
			if err != nil {
				return nil, errors.Wrapf(ErrSyntax, "line %d: %q is not an index", line, tok)
			}
			if v < 0 {
				return nil, errors.Wrapf(ErrSyntax, "line %d: negative index %d", line, v)
			}
			c[k] = v
		}
		corres = append(corres, c)
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "reading correspondences")
	}
	return corres, nil
}

// Write writes one correspondence per line.
func Write(w io.Writer, corres registration.CorrespondenceSet) error {
	bw := bufio.NewWriter(w)
	for _, c := range corres {
		if _, err := fmt.Fprintf(bw, "%d %d\n", c.Source(), c.Target()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load reads correspondences from the file.
func Load(path string) (registration.CorrespondenceSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	corres, err := Read(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return corres, nil
}
