package vhdl

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/hdlbuild/internal/core/domain"
)

// StaticCheckCode is the record code of static check findings.
const StaticCheckCode = "static"

type scanArea int

const (
	areaNone scanArea = iota
	areaEntity
	areaArchitecture
	areaPackage
	areaPackageBody
)

var (
	reAreaEntity       = regexp.MustCompile(`^\s*entity\s+\w+\s+is\b`)
	reAreaArchitecture = regexp.MustCompile(`^\s*architecture\s+\w+\s+of\s+\w+`)
	reAreaPackageBody  = regexp.MustCompile(`^\s*package\s+body\s+\w+\s+is\b`)
	reAreaPackage      = regexp.MustCompile(`^\s*package\s+\w+\s+is\b`)

	reEndOfScan = regexp.MustCompile(`\bport\s+map\b|\bgenerate\b|\w+\s*:\s*entity\b|\bprocess\b`)
)

type objectScanner struct {
	kind string
	re   *regexp.Regexp
}

var (
	noAreaScanners = []objectScanner{
		{kind: "library", re: regexp.MustCompile(`^\s*library\s+(\w+)`)},
		{kind: "attribute", re: regexp.MustCompile(`^\s*attribute\s+(\w+)\s*:`)},
	}
	entityScanners = []objectScanner{
		{kind: "port", re: regexp.MustCompile(`^\s*(\w+)\s*:\s*(?:in|out|inout|buffer)\s+\w+`)},
		{kind: "generic", re: regexp.MustCompile(`^\s*(\w+)\s*:\s*\w+[^:]*:=`)},
	}
	architectureScanners = []objectScanner{
		{kind: "constant", re: regexp.MustCompile(`^\s*constant\s+(\w+)\s*:`)},
		{kind: "signal", re: regexp.MustCompile(`^\s*signal\s+(\w+)\s*:`)},
		{kind: "type", re: regexp.MustCompile(`^\s*type\s+(\w+)\s+is\b`)},
		{kind: "shared variable", re: regexp.MustCompile(`^\s*shared\s+variable\s+(\w+)\s*:`)},
	}
)

type declaredObject struct {
	name   string
	kind   string
	line   int
	column int
}

// StaticCheck reports objects that are declared but never referenced again.
// Declarations are collected from the header of each area, up to the first
// process, generate or instantiation; references are counted over the whole text.
func StaticCheck(path string, text []byte) []domain.Record {
	lines := strings.Split(strings.ToLower(string(text)), "\n")
	for i, line := range lines {
		lines[i] = reLineComment.ReplaceAllString(line, "")
	}

	objects := collectObjects(lines)
	body := strings.Join(lines, " ")

	var records []domain.Record
	for _, obj := range objects {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(obj.name) + `\b`)
		if len(re.FindAllStringIndex(body, 2)) > 1 {
			continue
		}
		records = append(records, domain.Record{
			Path:     path,
			Severity: domain.SeverityWarning,
			Line:     obj.line,
			Column:   obj.column,
			Code:     StaticCheckCode,
			Message:  fmt.Sprintf("%s '%s' is never used", obj.kind, obj.name),
		})
	}

	domain.SortRecords(records)
	return records
}

func collectObjects(lines []string) []declaredObject {
	var objects []declaredObject
	index := make(map[string]int)
	area := areaNone

	for lnum, line := range lines {
		switch {
		case reAreaEntity.MatchString(line):
			area = areaEntity
		case reAreaArchitecture.MatchString(line):
			area = areaArchitecture
		case reAreaPackageBody.MatchString(line):
			area = areaPackageBody
		case reAreaPackage.MatchString(line):
			area = areaPackage
		}

		var scanners []objectScanner
		switch area {
		case areaNone:
			scanners = noAreaScanners
		case areaEntity:
			scanners = entityScanners
		case areaArchitecture:
			scanners = architectureScanners
		}

		for _, s := range scanners {
			m := s.re.FindStringSubmatchIndex(line)
			if m == nil {
				continue
			}
			obj := declaredObject{
				name:   line[m[2]:m[3]],
				kind:   s.kind,
				line:   lnum + 1,
				column: m[2] + 1,
			}
			if i, ok := index[obj.name]; ok {
				objects[i] = obj
				continue
			}
			index[obj.name] = len(objects)
			objects = append(objects, obj)
		}

		if reEndOfScan.MatchString(line) {
			break
		}
	}

	return slices.Clip(objects)
}
