package graph

import (
	"strings"
	"text/scanner"
)

// operationType reports the type ("query", "mutation" or "subscription") of the
// operation that operationName selects in doc. ok is false when the document
// does not name a single operation unambiguously; execution reports that case.
//
// Only top-level tokens are inspected, so keywords inside string values,
// aliases, field names and comments never count.
func operationType(doc, operationName string) (typ string, ok bool) {
	type op struct{ typ, name string }

	var sc scanner.Scanner
	sc.Init(strings.NewReader(doc))
	sc.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings
	sc.Error = func(*scanner.Scanner, string) {}

	const (
		top = iota
		afterKeyword
		afterName
		inFragment
	)

	var (
		ops       []op
		cur       op
		state     = top
		depth     int
		directive bool
	)
	for tok := sc.Scan(); tok != scanner.EOF; tok = sc.Scan() {
		switch tok {
		case '#':
			for r := sc.Peek(); r != '\n' && r != '\r' && r != scanner.EOF; r = sc.Peek() {
				sc.Next()
			}
			continue
		case scanner.String:
			if sc.TokenText() == `""` && sc.Peek() == '"' {
				skipBlockString(&sc)
			}
			continue
		case '{', '(', '[':
			if depth == 0 && tok == '{' {
				switch state {
				case top:
					ops = append(ops, op{typ: "query"})
				case afterKeyword, afterName:
					ops = append(ops, cur)
				}
				state = top
			}
			depth++
			continue
		case '}', ')', ']':
			if depth > 0 {
				depth--
			}
			continue
		case '@':
			directive = depth == 0
			continue
		}

		if depth != 0 || tok != scanner.Ident {
			continue
		}
		if directive {
			directive = false
			continue
		}

		word := sc.TokenText()
		switch state {
		case top:
			switch word {
			case "query", "mutation", "subscription":
				cur = op{typ: word}
				state = afterKeyword
			case "fragment":
				state = inFragment
			}
		case afterKeyword:
			cur.name = word
			state = afterName
		}
	}

	if operationName == "" {
		if len(ops) != 1 {
			return "", false
		}
		return ops[0].typ, true
	}
	for _, o := range ops {
		if o.name == operationName {
			return o.typ, true
		}
	}
	return "", false
}

// skipBlockString consumes the rest of a """block string""" whose opening
// quotes the scanner has read as an empty string.
func skipBlockString(sc *scanner.Scanner) {
	sc.Next()
	quotes := 0
	for r := sc.Next(); r != scanner.EOF; r = sc.Next() {
		switch {
		case r == '\\':
			for i := 0; i < 3 && sc.Peek() == '"'; i++ {
				sc.Next()
			}
			quotes = 0
		case r == '"':
			quotes++
			if quotes == 3 {
				return
			}
		default:
			quotes = 0
		}
	}
}
