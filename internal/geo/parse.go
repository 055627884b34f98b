package geo

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ParseError reports a malformed coordinate or target argument. It is
// fatal only for the offending target; callers skip the entry and continue.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Input, e.Reason)
}

var coordRe = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)$`)

// ParseCoordinateList parses an explicit coordinate argument of the form
// "label:lat,lon;label2:lat2,lon2". Labels are optional; an unlabeled pair is
// named after its coordinates. Entries that fail to parse are returned as
// ParseErrors alongside the successfully parsed locations.
func ParseCoordinateList(arg string) ([]Location, []error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, nil
	}

	var (
		locs []Location
		errs []error
	)
	for _, part := range strings.FieldsFunc(arg, func(r rune) bool { return r == ';' || r == '|' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		label, coords := "", part
		if i := strings.Index(part, ":"); i >= 0 {
			label = strings.TrimSpace(part[:i])
			coords = strings.TrimSpace(part[i+1:])
		}

		m := coordRe.FindStringSubmatch(coords)
		if m == nil {
			errs = append(errs, &ParseError{Input: part, Reason: "want lat,lon"})
			continue
		}
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lon, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			errs = append(errs, &ParseError{Input: part, Reason: "coordinates out of range"})
			continue
		}
		if label == "" {
			label = fmt.Sprintf("%.6f,%.6f", lat, lon)
		}
		locs = append(locs, Location{Name: label, Lat: lat, Lon: lon})
	}
	return locs, errs
}

// ParseNames parses a --names argument: either a comma-separated list of
// target names, or "@file" where the file holds one target per line in the
// form "name" or "name,lat,lon".
func ParseNames(arg string) ([]Location, []error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, nil
	}
	if strings.HasPrefix(arg, "@") {
		return parseNamesFile(arg[1:])
	}

	var (
		locs []Location
		errs []error
	)
	for _, name := range strings.Split(arg, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		loc, ok := FindDefault(name)
		if !ok {
			errs = append(errs, &ParseError{Input: name, Reason: "unknown target; pass coordinates explicitly"})
			continue
		}
		locs = append(locs, loc)
	}
	return locs, errs
}

func parseNamesFile(path string) ([]Location, []error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, []error{&ParseError{Input: "@" + path, Reason: err.Error()}}
	}
	defer f.Close()

	var (
		locs []Location
		errs []error
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		name := strings.TrimSpace(fields[0])
		if name == "" {
			continue
		}
		if len(fields) >= 3 {
			lat, err1 := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
			lon, err2 := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
			if err1 != nil || err2 != nil {
				errs = append(errs, &ParseError{Input: line, Reason: "bad coordinates"})
				continue
			}
			locs = append(locs, Location{Name: name, Lat: lat, Lon: lon})
			continue
		}
		loc, ok := FindDefault(name)
		if !ok {
			errs = append(errs, &ParseError{Input: name, Reason: "unknown target"})
			continue
		}
		locs = append(locs, loc)
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, &ParseError{Input: "@" + path, Reason: err.Error()})
	}
	return locs, errs
}
