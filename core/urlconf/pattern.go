// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package urlconf

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrMalformedCapture = errors.New("malformed capture group")
	ErrUnknownConverter = errors.New("unknown path converter")
	ErrInvalidName      = errors.New("capture name is not a valid identifier")
	ErrDuplicateCapture = errors.New("capture name used more than once")
)

var (
	captureGroupRegexp = regexp.MustCompile(`<(?:([^>:]+):)?([^>]+)>`)
	identifierRegexp   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// capture is one typed placeholder of a pattern.
type capture struct {
	name      string
	converter Converter
}

// part is either a literal run of text or a capture, in route order.
type part struct {
	literal string
	capture *capture
}

// Pattern is a compiled route string.
type Pattern struct {
	route    string
	endpoint bool
	re       *regexp.Regexp
	captures []capture
	parts    []part
}

// Compile compiles route into a Pattern.
//
// An endpoint pattern has to match the whole path. Otherwise it is a prefix
// pattern and the unmatched remainder is reported by Match.
func Compile(route string, endpoint bool) (*Pattern, error) {
	p := &Pattern{route: route, endpoint: endpoint}
	seen := make(map[string]bool)

	var expr strings.Builder

	expr.WriteString("^")

	pos := 0

	for _, loc := range captureGroupRegexp.FindAllStringSubmatchIndex(route, -1) {
		if err := p.addLiteral(&expr, route[pos:loc[0]]); err != nil {
			return nil, err
		}

		converterName := DefaultConverter
		if loc[2] >= 0 {
			converterName = route[loc[2]:loc[3]]
		}

		name := route[loc[4]:loc[5]]

		if !identifierRegexp.MatchString(name) {
			return nil, fmt.Errorf("%w: %q in %q", ErrInvalidName, name, route)
		}

		if seen[name] {
			return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateCapture, name, route)
		}

		seen[name] = true

		converter, ok := LookupConverter(converterName)
		if !ok {
			return nil, fmt.Errorf("%w: %q in %q", ErrUnknownConverter, converterName, route)
		}

		c := capture{name: name, converter: converter}
		p.captures = append(p.captures, c)
		p.parts = append(p.parts, part{capture: &c})

		fmt.Fprintf(&expr, "(?P<%s>%s)", name, converter.Regexp)

		pos = loc[1]
	}

	if err := p.addLiteral(&expr, route[pos:]); err != nil {
		return nil, err
	}

	if endpoint {
		expr.WriteString("$")
	}

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("failed to compile route %q: %w", route, err)
	}

	p.re = re

	return p, nil
}

func (p *Pattern) addLiteral(expr *strings.Builder, literal string) error {
	if literal == "" {
		return nil
	}

	if strings.ContainsAny(literal, "<>") {
		return fmt.Errorf("%w: %q", ErrMalformedCapture, p.route)
	}

	expr.WriteString(regexp.QuoteMeta(literal))
	p.parts = append(p.parts, part{literal: literal})

	return nil
}

// String returns the route the pattern was compiled from.
func (p *Pattern) String() string {
	return p.route
}

// Names returns the capture names in route order.
func (p *Pattern) Names() []string {
	names := make([]string, len(p.captures))
	for i, c := range p.captures {
		names[i] = c.name
	}

	return names
}

// Match matches path, which must not start with a slash.
func (p *Pattern) Match(path string) (captures map[string]string, remainder string, ok bool) {
	loc := p.re.FindStringSubmatchIndex(path)
	if loc == nil {
		return nil, "", false
	}

	captures = make(map[string]string, len(p.captures))

	for i, c := range p.captures {
		captures[c.name] = path[loc[2*(i+1)]:loc[2*(i+1)+1]]
	}

	return captures, path[loc[1]:], true
}

// build renders the route with kwargs substituted for its captures.
func (p *Pattern) build(kwargs map[string]string) (string, error) {
	var sb strings.Builder

	for _, pt := range p.parts {
		if pt.capture == nil {
			sb.WriteString(pt.literal)

			continue
		}

		value, ok := kwargs[pt.capture.name]
		if !ok {
			return "", fmt.Errorf("%w: missing %q", ErrNoReverseMatch, pt.capture.name)
		}

		if !pt.capture.converter.Matches(value) {
			return "", fmt.Errorf("%w: %q is not a valid %s for %q",
				ErrNoReverseMatch, value, pt.capture.converter.Name, pt.capture.name)
		}

		sb.WriteString(value)
	}

	if len(kwargs) != len(p.captures) {
		return "", fmt.Errorf("%w: %d arguments given, route %q takes %d",
			ErrNoReverseMatch, len(kwargs), p.route, len(p.captures))
	}

	return sb.String(), nil
}
