package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/breakthefear/btf/core"
)

// pending prints the remaining due of every student, then the total.
func (cli *commandLine) pending() error {
	dues, total, err := cli.reporter.PendingByStudent(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT ID\tNAME\tPENDING")
	for _, due := range dues {
		fmt.Fprintf(w, "%s\t%s\t%s\n", due.StudentCode, due.Name, core.FormatMoney(cli.currency, due.Remaining))
	}
	fmt.Fprintf(w, "\t%s\t%s\n", "TOTAL", core.FormatMoney(cli.currency, total))
	return w.Flush()
}
