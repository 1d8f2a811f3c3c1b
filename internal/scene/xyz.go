package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadXYZ reads atoms from an XYZ file.
func LoadXYZ(path string) ([]Atom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	atoms, err := ParseXYZ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return atoms, nil
}

// ParseXYZ parses the XYZ format: an atom count line, a comment line, then
// one "symbol x y z" line per atom. Trailing blank lines are ignored.
func ParseXYZ(r io.Reader) ([]Atom, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("xyz: missing atom count")
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("xyz: invalid atom count %q", sc.Text())
	}
	sc.Scan() // comment

	atoms := make([]Atom, 0, n)
	line := 2
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(atoms) == n {
			return nil, fmt.Errorf("xyz: line %d: more atoms than declared (%d)", line, n)
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("xyz: line %d: expected symbol and 3 coordinates", line)
		}
		e, err := ParseElement(fields[0])
		if err != nil {
			return nil, fmt.Errorf("xyz: line %d: %w", line, err)
		}
		var c [3]float32
		for i := range c {
			v, err := strconv.ParseFloat(fields[i+1], 32)
			if err != nil {
				return nil, fmt.Errorf("xyz: line %d: %w", line, err)
			}
			c[i] = float32(v)
		}
		atoms = append(atoms, NewAtom(e, c[0], c[1], c[2]))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(atoms) != n {
		return nil, fmt.Errorf("xyz: declared %d atoms, found %d", n, len(atoms))
	}
	return atoms, nil
}

// Load resolves a scene source: "caffeine" (or empty) selects the built-in
// molecule, anything else is read as an XYZ file.
func Load(source string) (*Scene, error) {
	if source == "" || source == "caffeine" {
		return Caffeine(), nil
	}
	atoms, err := LoadXYZ(source)
	if err != nil {
		return nil, err
	}
	return New(atoms, DefaultOffset)
}
