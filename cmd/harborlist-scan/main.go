// Command harborlist-scan runs the content risk scanner over a title and
// description and prints the report as JSON
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"harborlist/internal/core/riskscan"
)

type input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func main() {
	var (
		fTitle  = flag.String("title", "", "listing title")
		fDesc   = flag.String("description", "", "listing description")
		fStdin  = flag.Bool("stdin", false, `read {"title","description"} JSON from stdin`)
		fStrict = flag.Bool("strict", false, "exit 1 when the report would flag the listing")
	)
	flag.Parse()

	in := input{Title: *fTitle, Description: *fDesc}
	if *fStdin {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fail("read stdin: %v", err)
		}
		if err := json.Unmarshal(b, &in); err != nil {
			fail("decode stdin: %v", err)
		}
	}
	if in.Title == "" && in.Description == "" {
		flag.Usage()
		os.Exit(2)
	}

	sc, err := riskscan.Default()
	if err != nil {
		fail("load rules: %v", err)
	}
	rep := sc.Scan(in.Title, in.Description)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		fail("encode: %v", err)
	}
	if *fStrict && rep.Flagged() {
		os.Exit(1)
	}
}

func fail(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "harborlist-scan: "+format+"\n", a...)
	os.Exit(2)
}
