// Package pace reads and writes the PACE treewidth challenge's text
// formats: the ".gr" dialect ("p tw n m" header, "u v" edge lines) and
// the DIMACS ".dgf" dialect ("p edge n m" header, "e u v" edge lines)
// for input, and the ".td" tree-decomposition dialect for output.
//
// Line/record splitting is handled with bufio.Scanner, since both
// dialects are fundamentally line-oriented record formats (not
// something a token grammar library models); per-line token parsing of
// the two-field edge body reuses the teacher's participle-grammar
// approach from lib/parser.go's ParseEdge, generalized from a
// name-plus-parenthesized-vertex-list production to a flat two-token
// edge production. Unlike lib/parser.go, the vertex-name encoding table
// is returned as part of Result rather than stashed in a package-level
// var — there is no hidden global to race on across concurrent parses.
package pace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle"

	"github.com/cem-okulmus/twdecomp/internal/decomp"
	"github.com/cem-okulmus/twdecomp/internal/graphstore"
)

// ErrMalformedInput is returned, wrapped with line/context detail, for
// any input that does not conform to the expected dialect.
var ErrMalformedInput = errors.New("pace: malformed input")

// edgeLine is the flat "token token" production shared by both
// dialects once the line is stripped of its leading keyword (".dgf"'s
// "e") — directly descended from lib/parser.go's ParseEdge shape.
type edgeLine struct {
	U string `@(Int|Ident)`
	V string `@(Int|Ident)`
}

var edgeParser = participle.MustBuild(&edgeLine{}, participle.UseLookahead(1))

// Result is a parsed graph plus the bidirectional mapping between
// internal integer vertex ids and the original file tokens.
type Result struct {
	Graph    *graphstore.Graph
	Encoding map[int]string
	Decoding map[string]int
}

// ParseGr reads the PACE 2017 ".gr" dialect.
func ParseGr(r io.Reader) (*Result, error) {
	return parseDialect(r, "tw", "")
}

// ParseDgf reads the DIMACS ".dgf" dialect.
func ParseDgf(r io.Reader) (*Result, error) {
	return parseDialect(r, "edge", "e")
}

func parseDialect(r io.Reader, problemKind, edgeKeyword string) (*Result, error) {
	g := graphstore.New()
	encoding := make(map[int]string)
	decoding := make(map[string]int)
	next := 1

	intern := func(tok string) int {
		if id, ok := decoding[tok]; ok {
			return id
		}
		id := next
		next++
		decoding[tok] = id
		encoding[id] = tok
		g.AddVertex(id)
		return id
	}

	seenHeader := false
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "c"):
			continue
		case strings.HasPrefix(line, "p "):
			fields := strings.Fields(line)
			if len(fields) < 4 || fields[1] != problemKind {
				return nil, fmt.Errorf("%w: line %d: expected \"p %s n m\", got %q", ErrMalformedInput, lineNo, problemKind, line)
			}
			seenHeader = true
		default:
			body := line
			if edgeKeyword != "" {
				if !strings.HasPrefix(line, edgeKeyword+" ") {
					return nil, fmt.Errorf("%w: line %d: expected %q edge line, got %q", ErrMalformedInput, lineNo, edgeKeyword, line)
				}
				body = strings.TrimSpace(strings.TrimPrefix(line, edgeKeyword))
			}
			var e edgeLine
			if err := edgeParser.ParseString(body, &e); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedInput, lineNo, err)
			}
			u, v := intern(e.U), intern(e.V)
			if err := g.AddEdge(u, v); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedInput, lineNo, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !seenHeader {
		return nil, fmt.Errorf("%w: missing problem line", ErrMalformedInput)
	}
	return &Result{Graph: g, Encoding: encoding, Decoding: decoding}, nil
}

// WriteTd writes td in the PACE ".td" dialect: an "s td" header
// (bag count, max bag size, vertex count), one "b id v1 v2 ..." line
// per bag (1-indexed bag ids, as the format requires), and one
// "parentID childID" line per tree edge.
func WriteTd(w io.Writer, td *decomp.TreeDecomposition, numVertices int) error {
	bags := td.Bags()
	idOf := make(map[*decomp.Bag]int, len(bags))
	for i, b := range bags {
		idOf[b] = i + 1
	}

	maxBag := 0
	for _, b := range bags {
		if len(b.Vertices) > maxBag {
			maxBag = len(b.Vertices)
		}
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "s td %d %d %d\n", len(bags), maxBag, numVertices); err != nil {
		return err
	}
	for _, b := range bags {
		verts := b.SortedVertices()
		parts := make([]string, 0, len(verts)+1)
		parts = append(parts, strconv.Itoa(idOf[b]))
		for _, v := range verts {
			parts = append(parts, strconv.Itoa(v))
		}
		if _, err := fmt.Fprintf(bw, "b %s\n", strings.Join(parts, " ")); err != nil {
			return err
		}
	}

	var edges [][2]int
	for _, b := range bags {
		for _, c := range b.Children {
			edges = append(edges, [2]int{idOf[b], idOf[c]})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	for _, e := range edges {
		if _, err := fmt.Fprintf(bw, "%d %d\n", e[0], e[1]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
